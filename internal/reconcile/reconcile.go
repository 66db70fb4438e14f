// Package reconcile matches ortho and raw image files by frame number and
// maintains the manifest that maps orthos to desired camera-model files.
// The filesystem is the sole source of truth: records are rebuilt from
// directory listings on every invocation, so the dataset can fill in
// incrementally across pipeline stages.
package reconcile

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/navcam/navcam-agent/internal/faults"
	"github.com/navcam/navcam-agent/internal/frame"
)

// Open-ended frame range sentinels.
const (
	DefaultStartFrame = -1
	DefaultStopFrame  = 999999
)

// Params bound one reconciliation run.
type Params struct {
	ImageFolder  string
	OrthoFolder  string
	OutputFolder string
	StartFrame   int // inclusive
	StopFrame    int // inclusive
}

// Record pairs the files known for one frame. A record reaches the manifest
// only when both sides are present; one-sided records are dropped for this
// run and picked up by a later one once the missing file appears.
type Record struct {
	Frame int
	Ortho string // ortho image filename
	Image string // raw image filename
}

// Result summarises one reconciliation.
type Result struct {
	ManifestPath       string
	Rows               []Row
	OrthoCount         int // orthos in range after filtering
	ImageCount         int // images in range after filtering
	ConversionRequired bool
	MissingCamera      string // first missing camera file, when conversion is required
}

// Reconciler builds frame records and manifests.
type Reconciler struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile lists both folders, matches frames, overwrites the manifest for
// this frame range and checks whether the desired camera files already
// exist. A missing ortho folder is fatal; an unreadable image folder is
// recoverable because an earlier pipeline stage may not have produced the
// images yet.
func (r *Reconciler) Reconcile(p Params) (*Result, error) {
	records, orthoCount, imageCount, err := r.collect(p)
	if err != nil {
		return nil, err
	}

	rows := manifestRows(records)

	manifestPath := ManifestPath(p.OutputFolder, p.StartFrame, p.StopFrame)
	r.logger.Info("writing manifest", "path", manifestPath, "rows", len(rows))
	if err := WriteManifest(manifestPath, rows); err != nil {
		return nil, faults.Wrap(faults.KindFatal, "cannot write manifest", err)
	}

	// Re-read from disk so the completeness decision is based on exactly
	// what a downstream consumer of the manifest will see.
	written, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, faults.Wrap(faults.KindFatal, "cannot re-read manifest", err)
	}

	missing, ok := firstMissingCamera(p.OutputFolder, written)
	if !ok {
		r.logger.Info("missing camera file", "path", missing)
	}

	return &Result{
		ManifestPath:       manifestPath,
		Rows:               written,
		OrthoCount:         orthoCount,
		ImageCount:         imageCount,
		ConversionRequired: !ok,
		MissingCamera:      missing,
	}, nil
}

// collect builds the frame records from both directory listings.
func (r *Reconciler) collect(p Params) (map[int]*Record, int, int, error) {
	orthoFiles, err := frame.ListTifs(p.OrthoFolder)
	if err != nil {
		return nil, 0, 0, faults.Wrap(faults.KindFatal,
			fmt.Sprintf("cannot list ortho folder %s", p.OrthoFolder), err)
	}
	r.logger.Info("found ortho files", "count", len(orthoFiles))

	records := make(map[int]*Record)
	orthoCount := 0
	for _, ortho := range orthoFiles {
		f, err := frame.Number(ortho)
		if err != nil {
			return nil, 0, 0, faults.Wrap(faults.KindFatal, "bad ortho filename", err)
		}
		if f < p.StartFrame || f > p.StopFrame {
			continue
		}
		records[f] = &Record{Frame: f, Ortho: ortho}
		orthoCount++
	}

	imageFiles, err := frame.ListTifs(p.ImageFolder)
	if err != nil {
		// Images may not exist yet because an earlier stage has not
		// produced them; the whole run is retried later.
		return nil, 0, 0, faults.Wrap(faults.KindRecoverable,
			"cannot list image folder, will resume later when images are created", err)
	}
	r.logger.Info("found image files", "count", len(imageFiles))

	imageCount := 0
	for _, image := range imageFiles {
		f, err := frame.Number(image)
		if err != nil {
			return nil, 0, 0, faults.Wrap(faults.KindFatal, "bad image filename", err)
		}
		if f < p.StartFrame || f > p.StopFrame {
			continue
		}
		imageCount++
		rec, ok := records[f]
		if !ok {
			// Images can outpace ortho generation; the missing pair will
			// be recovered on a later run.
			r.logger.Info("image missing ortho file", "image", image, "frame", f)
			continue
		}
		rec.Image = image
	}

	return records, orthoCount, imageCount, nil
}

// manifestRows emits rows for complete records in ascending frame order.
func manifestRows(records map[int]*Record) []Row {
	frames := make([]int, 0, len(records))
	for f := range records {
		frames = append(frames, f)
	}
	sort.Ints(frames)

	rows := make([]Row, 0, len(frames))
	for _, f := range frames {
		rec := records[f]
		if rec.Image == "" {
			continue
		}
		rows = append(rows, Row{
			Ortho:  rec.Ortho,
			Camera: frame.CameraFileName(rec.Image),
		})
	}
	return rows
}
