// Package tools wraps the external native binaries the agent orchestrates:
// sbet2txt (navigation binary to text), nav2cam (camera-model generation)
// and orbitviz_pinhole (KML visualization). Tool locations come from
// explicit configuration, never from ambient process state.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics

	defaultSbet2TxtName = "sbet2txt.pl"
	defaultNav2CamName  = "nav2cam"
	defaultOrbitvizName = "orbitviz_pinhole"
)

// Runner executes the external tools as subprocesses. It is the single
// execution contract used throughout the agent; tests substitute fakes.
type Runner interface {
	// ConvertNav converts one binary navigation file to text, appending the
	// tool's stdout to parsedPath.
	ConvertNav(ctx context.Context, navPath, parsedPath string) (RunResult, error)

	// GenerateCameras invokes nav2cam to produce one camera-model file per
	// manifest row. A non-zero exit status is reported in the RunResult but
	// is not an error: callers verify the output files instead.
	GenerateCameras(ctx context.Context, req CameraRequest) (RunResult, error)

	// RenderKML invokes orbitviz_pinhole on a camera-file list.
	RenderKML(ctx context.Context, listPath, kmlPath string) (RunResult, error)
}

// CameraRequest carries the nav2cam invocation arguments.
type CameraRequest struct {
	InputCamera  string   // calibration camera file
	NavText      string   // converted navigation text file
	CameraList   string   // manifest file mapping orthos to camera names
	OutputFolder string   // destination for generated camera files
	Mounting     Mounting // camera mounting orientation
}

// Config holds the runner's configuration.
type Config struct {
	Sbet2TxtPath    string // empty = look up on PATH
	Nav2CamPath     string
	OrbitvizPath    string
	ConvertTimeout  time.Duration
	GenerateTimeout time.Duration
	KMLTimeout      time.Duration
	Logger          *slog.Logger
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		ConvertTimeout:  10 * time.Minute,
		GenerateTimeout: 2 * time.Hour,
		KMLTimeout:      10 * time.Minute,
		Logger:          logger,
	}
}

// SubprocessRunner is the production implementation of Runner.
type SubprocessRunner struct {
	cfg      Config
	sbet2txt string
	nav2cam  string
	orbitviz string // empty when not installed; RenderKML then fails soft
}

// NewRunner creates a SubprocessRunner, resolving tool paths up front.
// sbet2txt and nav2cam are required; orbitviz_pinhole is optional since
// KML rendering is best-effort.
func NewRunner(cfg Config) (*SubprocessRunner, error) {
	sbet2txt, err := resolveTool(cfg.Sbet2TxtPath, defaultSbet2TxtName)
	if err != nil {
		return nil, fmt.Errorf("cannot locate nav converter: %w", err)
	}
	nav2cam, err := resolveTool(cfg.Nav2CamPath, defaultNav2CamName)
	if err != nil {
		return nil, fmt.Errorf("cannot locate camera generator: %w", err)
	}
	orbitviz, err := resolveTool(cfg.OrbitvizPath, defaultOrbitvizName)
	if err != nil {
		cfg.Logger.Warn("KML tool unavailable, visualization disabled", "error", err)
		orbitviz = ""
	}

	cfg.Logger.Info("tool runner initialised",
		"sbet2txt", sbet2txt,
		"nav2cam", nav2cam,
		"orbitviz", orbitviz,
	)

	return &SubprocessRunner{
		cfg:      cfg,
		sbet2txt: sbet2txt,
		nav2cam:  nav2cam,
		orbitviz: orbitviz,
	}, nil
}

func (r *SubprocessRunner) ConvertNav(ctx context.Context, navPath, parsedPath string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ConvertTimeout)
	defer cancel()

	// Conversion output accumulates across nav files, so open for append.
	out, err := os.OpenFile(parsedPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return RunResult{ExitCode: -1, StderrTail: err.Error()}, fmt.Errorf("cannot open parsed nav file: %w", err)
	}
	defer out.Close()

	result := r.exec(ctx, out, r.sbet2txt, "-q", navPath)
	if !result.IsSuccess() {
		return result, fmt.Errorf("nav conversion exited %d: %s", result.ExitCode, result.StderrTail)
	}
	return result, nil
}

func (r *SubprocessRunner) GenerateCameras(ctx context.Context, req CameraRequest) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
	defer cancel()

	result := r.exec(ctx, io.Discard, r.nav2cam,
		"--input-cam", req.InputCamera,
		"--nav-file", req.NavText,
		"--cam-list", req.CameraList,
		"--output-folder", req.OutputFolder,
		"--camera-mounting", fmt.Sprintf("%d", req.Mounting),
	)
	// The generator's exit status is not trusted either way; the caller
	// re-checks the output folder for the expected camera files.
	return result, nil
}

func (r *SubprocessRunner) RenderKML(ctx context.Context, listPath, kmlPath string) (RunResult, error) {
	if r.orbitviz == "" {
		return RunResult{ExitCode: -1}, fmt.Errorf("orbitviz_pinhole not installed")
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.KMLTimeout)
	defer cancel()

	result := r.exec(ctx, io.Discard, r.orbitviz,
		"--hide-labels",
		"-o", kmlPath,
		"--input-list", listPath,
	)
	if !result.IsSuccess() {
		return result, fmt.Errorf("KML rendering exited %d: %s", result.ExitCode, result.StderrTail)
	}
	return result, nil
}

// exec is the core subprocess execution helper.
func (r *SubprocessRunner) exec(ctx context.Context, stdout io.Writer, bin string, args ...string) RunResult {
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = stdout

	r.cfg.Logger.Info("executing tool", "bin", bin, "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if exitCode != 0 {
		r.cfg.Logger.Warn("tool exited non-zero",
			"bin", bin,
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		r.cfg.Logger.Info("tool succeeded",
			"bin", bin,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

// resolveTool finds a tool binary, preferring the configured path.
func resolveTool(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured tool %q not found", preferred)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%s not found on PATH", name)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
