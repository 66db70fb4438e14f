package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Service records pipeline runs. A nil *Service is valid and records
// nothing, so the pipeline can run without a catalog in one-shot mode.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RecordRun persists a run summary. Catalog failures are logged, never
// propagated: history is an observability aid, not a pipeline dependency.
func (s *Service) RecordRun(ctx context.Context, run *Run) {
	if s == nil {
		return
	}

	if run.ID == "" {
		run.ID = NewID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	if err := s.repo.CreateRun(ctx, run); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
		}
		return
	}

	if s.logger != nil {
		s.logger.Info("run recorded",
			"run_id", run.ID,
			"status", run.Status,
			"manifest_rows", run.ManifestRows,
			"conversion_required", run.ConversionRequired,
		)
	}
}

// LastRun returns the most recent run, or nil when none exist.
func (s *Service) LastRun(ctx context.Context) (*Run, error) {
	if s == nil {
		return nil, nil
	}
	return s.repo.LastRun(ctx)
}

// Runs returns up to limit recent runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]*Run, error) {
	if s == nil {
		return nil, nil
	}
	return s.repo.ListRuns(ctx, limit)
}

// CountRuns returns the total number of recorded runs.
func (s *Service) CountRuns(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}
	return s.repo.CountRuns(ctx)
}
