package catalog

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one pipeline invocation: the frame range it covered, what it
// found on disk and whether the external camera generator had to run.
type Run struct {
	ID                 string    `json:"id"`
	StartFrame         int       `json:"start_frame"`
	StopFrame          int       `json:"stop_frame"`
	OrthoCount         int       `json:"ortho_count"`
	ImageCount         int       `json:"image_count"`
	ManifestRows       int       `json:"manifest_rows"`
	ConversionRequired bool      `json:"conversion_required"`
	Status             string    `json:"status"`
	Error              string    `json:"error,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
