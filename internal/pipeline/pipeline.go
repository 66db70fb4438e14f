// Package pipeline sequences one camera-model generation pass: locate and
// convert navigation data, pick a calibration camera, reconcile the image
// folders into a manifest, and invoke the external generator only when the
// manifest says camera files are still missing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/navcam/navcam-agent/internal/calib"
	"github.com/navcam/navcam-agent/internal/catalog"
	"github.com/navcam/navcam-agent/internal/faults"
	"github.com/navcam/navcam-agent/internal/frame"
	"github.com/navcam/navcam-agent/internal/nav"
	"github.com/navcam/navcam-agent/internal/reconcile"
	"github.com/navcam/navcam-agent/internal/tools"
)

// kmlFileName is the visualization product rendered into the output folder.
const kmlFileName = "nav_cameras.kml"

// Options bound one pipeline invocation.
type Options struct {
	ImageFolder  string
	OrthoFolder  string
	CalFolder    string
	NavFolder    string
	OutputFolder string

	StartFrame int
	StopFrame  int

	// InputCalibration, when non-empty, bypasses the calibration folder scan.
	InputCalibration string

	Mounting tools.Mounting

	// BatchEnvVar names the environment variable whose presence marks a
	// distributed-batch worker; KML rendering is skipped there so parallel
	// nodes do not overwrite each other's output.
	BatchEnvVar string
}

// Summary reports what one invocation did.
type Summary struct {
	ManifestPath       string
	ManifestRows       int
	OrthoCount         int
	ImageCount         int
	ConversionRequired bool
	CalibrationPath    string
	ParsedNavPath      string
}

// Pipeline runs invocations. It holds no filesystem state between runs;
// every run re-derives everything from the directories.
type Pipeline struct {
	opts       Options
	runner     tools.Runner
	locator    *nav.Locator
	reconciler *reconcile.Reconciler
	history    *catalog.Service // nil disables run recording
	logger     *slog.Logger
}

func New(opts Options, runner tools.Runner, history *catalog.Service, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		opts:       opts,
		runner:     runner,
		locator:    nav.NewLocator(runner, logger),
		reconciler: reconcile.New(logger),
		history:    history,
		logger:     logger,
	}
}

// Run executes one invocation and records its outcome in the catalog.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary, err := p.run(ctx)

	run := &catalog.Run{
		StartFrame: p.opts.StartFrame,
		StopFrame:  p.opts.StopFrame,
		Status:     catalog.RunStatusCompleted,
	}
	if summary != nil {
		run.OrthoCount = summary.OrthoCount
		run.ImageCount = summary.ImageCount
		run.ManifestRows = summary.ManifestRows
		run.ConversionRequired = summary.ConversionRequired
	}
	if err != nil {
		run.Status = catalog.RunStatusFailed
		run.Error = err.Error()
	}
	p.history.RecordRun(ctx, run)

	return summary, err
}

func (p *Pipeline) run(ctx context.Context) (*Summary, error) {
	if _, err := os.Stat(p.opts.OrthoFolder); err != nil {
		return nil, faults.Fatalf("ortho folder %s does not exist", p.opts.OrthoFolder)
	}
	if err := os.MkdirAll(p.opts.OutputFolder, 0755); err != nil {
		return nil, faults.Wrap(faults.KindFatal, "cannot create output folder", err)
	}

	parsedNav, err := p.locator.Prepare(ctx, p.opts.NavFolder)
	if err != nil {
		return nil, err
	}

	camera, err := calib.Find(p.opts.CalFolder, p.opts.InputCalibration)
	if err != nil {
		return nil, err
	}
	p.logger.Info("using calibration camera", "path", camera)

	res, err := p.reconciler.Reconcile(reconcile.Params{
		ImageFolder:  p.opts.ImageFolder,
		OrthoFolder:  p.opts.OrthoFolder,
		OutputFolder: p.opts.OutputFolder,
		StartFrame:   p.opts.StartFrame,
		StopFrame:    p.opts.StopFrame,
	})
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ManifestPath:       res.ManifestPath,
		ManifestRows:       len(res.Rows),
		OrthoCount:         res.OrthoCount,
		ImageCount:         res.ImageCount,
		ConversionRequired: res.ConversionRequired,
		CalibrationPath:    camera,
		ParsedNavPath:      parsedNav,
	}

	if res.ConversionRequired {
		result, err := p.runner.GenerateCameras(ctx, tools.CameraRequest{
			InputCamera:  camera,
			NavText:      parsedNav,
			CameraList:   res.ManifestPath,
			OutputFolder: p.opts.OutputFolder,
			Mounting:     p.opts.Mounting,
		})
		if err != nil {
			return summary, faults.Wrap(faults.KindFatal, "camera generation failed", err)
		}
		// A non-zero generator exit is deliberately not an error here; the
		// next run's completeness gate verifies the output files instead.
		p.logger.Info("camera generation finished",
			"exit_code", result.ExitCode,
			"duration_ms", result.Duration.Milliseconds(),
		)
	} else {
		p.logger.Info("all camera files already generated")
	}

	p.renderKML(ctx)

	p.logger.Info("finished generating camera models from nav",
		"manifest", res.ManifestPath,
		"rows", len(res.Rows),
	)
	return summary, nil
}

// renderKML is best-effort: failures downgrade to warnings and never affect
// the invocation's outcome.
func (p *Pipeline) renderKML(ctx context.Context) {
	if p.opts.BatchEnvVar != "" && os.Getenv(p.opts.BatchEnvVar) != "" {
		// Running on a batch worker; the head node renders the KML instead.
		p.logger.Info("batch environment detected, skipping KML rendering",
			"marker", p.opts.BatchEnvVar)
		return
	}

	cameras, err := filepath.Glob(filepath.Join(p.opts.OutputFolder, "*"+frame.CameraExt))
	if err != nil || len(cameras) == 0 {
		p.logger.Info("no camera files to visualize, skipping KML rendering")
		return
	}

	listPath := filepath.Join(p.opts.OutputFolder, "list.txt")
	if err := writeLines(listPath, cameras); err != nil {
		p.logger.Warn("cannot write camera list for KML rendering", "error", err)
		return
	}
	defer os.Remove(listPath)

	kmlPath := filepath.Join(p.opts.OutputFolder, kmlFileName)
	p.logger.Info("generating nav camera kml file", "path", kmlPath)

	if _, err := p.runner.RenderKML(ctx, listPath, kmlPath); err != nil {
		p.logger.Warn("KML rendering failed", "error", err)
	}
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
