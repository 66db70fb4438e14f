package api

import (
	"time"

	"github.com/navcam/navcam-agent/internal/catalog"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State     string       `json:"state"`
	LastError string       `json:"last_error,omitempty"`
	RunsTotal int          `json:"runs_total"`
	LastRun   *RunResponse `json:"last_run,omitempty"`
}

type RunResponse struct {
	ID                 string `json:"id"`
	StartFrame         int    `json:"start_frame"`
	StopFrame          int    `json:"stop_frame"`
	OrthoCount         int    `json:"ortho_count"`
	ImageCount         int    `json:"image_count"`
	ManifestRows       int    `json:"manifest_rows"`
	ConversionRequired bool   `json:"conversion_required"`
	Status             string `json:"status"`
	Error              string `json:"error,omitempty"`
	CreatedAt          string `json:"created_at"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func RunToResponse(r *catalog.Run) RunResponse {
	return RunResponse{
		ID:                 r.ID,
		StartFrame:         r.StartFrame,
		StopFrame:          r.StopFrame,
		OrthoCount:         r.OrthoCount,
		ImageCount:         r.ImageCount,
		ManifestRows:       r.ManifestRows,
		ConversionRequired: r.ConversionRequired,
		Status:             r.Status,
		Error:              r.Error,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
}
