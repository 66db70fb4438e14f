// Command navcam builds camera-model files for a flight's image frames
// from its navigation data, by orchestrating the external sbet2txt,
// nav2cam and orbitviz_pinhole tools around a frame manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/navcam/navcam-agent/internal/api"
	"github.com/navcam/navcam-agent/internal/catalog"
	"github.com/navcam/navcam-agent/internal/config"
	"github.com/navcam/navcam-agent/internal/db"
	"github.com/navcam/navcam-agent/internal/faults"
	"github.com/navcam/navcam-agent/internal/logging"
	"github.com/navcam/navcam-agent/internal/pipeline"
	"github.com/navcam/navcam-agent/internal/reconcile"
	"github.com/navcam/navcam-agent/internal/tools"
)

const usage = `usage: navcam [options] <image_folder> <ortho_folder> <cal_folder> <nav_folder> <output_folder>`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "navcam: %v\n", err)
		if faults.IsRecoverable(err) {
			// Distinct exit code so batch schedulers requeue instead of fail.
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("navcam", flag.ExitOnError)
	startFrame := fs.Int("start-frame", reconcile.DefaultStartFrame,
		"The frame number to start processing with.")
	stopFrame := fs.Int("stop-frame", reconcile.DefaultStopFrame,
		"The frame number to finish processing with.")
	inputCal := fs.String("input-calibration-camera", "",
		"Use this input calibrated camera.")
	mountingFlag := fs.Int("camera-mounting", 0,
		"0=right-forwards, 1=left-forwards, 2=top-forwards, 3=bottom-forwards.")
	watch := fs.Bool("watch", false,
		"Keep re-running until interrupted, retrying while upstream files appear.")
	interval := fs.Duration("interval", 5*time.Minute,
		"Delay between runs in watch mode.")
	serve := fs.Bool("serve", false,
		"Serve the local status API in watch mode.")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) < 5 {
		fs.Usage()
		return fmt.Errorf("missing arguments")
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel(), cfg.LogFormat())
	logger.Info("starting navcam", "version", config.Version)

	mountingValue := cfg.DefaultMounting()
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "camera-mounting" {
			mountingValue = *mountingFlag
		}
	})
	mounting, err := tools.ParseMounting(mountingValue)
	if err != nil {
		return err
	}

	folders := make([]string, 5)
	for i, arg := range args[:5] {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", arg, err)
		}
		folders[i] = abs
	}

	runner, err := tools.NewRunner(tools.Config{
		Sbet2TxtPath:    cfg.Sbet2TxtPath(),
		Nav2CamPath:     cfg.Nav2CamPath(),
		OrbitvizPath:    cfg.OrbitvizPath(),
		ConvertTimeout:  cfg.ConvertTimeout(),
		GenerateTimeout: cfg.GenerateTimeout(),
		KMLTimeout:      cfg.KMLTimeout(),
		Logger:          logging.WithComponent(logger, "tools"),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	history := catalog.NewService(catalog.NewRepository(database.Conn()), logger)

	opts := pipeline.Options{
		ImageFolder:      folders[0],
		OrthoFolder:      folders[1],
		CalFolder:        folders[2],
		NavFolder:        folders[3],
		OutputFolder:     folders[4],
		StartFrame:       *startFrame,
		StopFrame:        *stopFrame,
		InputCalibration: *inputCal,
		Mounting:         mounting,
		BatchEnvVar:      cfg.BatchEnvVar(),
	}

	p := pipeline.New(opts, runner, history, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*watch {
		_, err := p.Run(ctx)
		return err
	}

	agent := pipeline.NewAgent(p, *interval, logger)

	if *serve {
		apiServer := api.NewServer(api.ServerConfig{
			Port:      cfg.Port(),
			History:   history,
			Agent:     agent,
			Logger:    logger,
			StartTime: time.Now(),
			Version:   config.Version,
		})
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("HTTP server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP server", "error", err)
			}
		}()
	}

	return agent.Run(ctx)
}
