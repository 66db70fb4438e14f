package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/navcam/navcam-agent/internal/faults"
)

// Agent re-runs the pipeline on an interval. Recoverable failures (an
// upstream stage has not produced its files yet) are retried on the next
// tick; fatal failures stop the agent.
type Agent struct {
	pipeline *Pipeline
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	state     string
	lastError string
}

const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateWaiting = "waiting" // recoverable failure, retrying next tick
	StateError   = "error"
)

func NewAgent(p *Pipeline, interval time.Duration, logger *slog.Logger) *Agent {
	return &Agent{
		pipeline: p,
		interval: interval,
		logger:   logger,
		state:    StateIdle,
	}
}

// Run loops until the context is cancelled or a fatal fault occurs.
func (a *Agent) Run(ctx context.Context) error {
	for {
		a.setState(StateRunning, "")

		_, err := a.pipeline.Run(ctx)
		switch {
		case err == nil:
			a.setState(StateIdle, "")
		case faults.IsRecoverable(err):
			a.logger.Warn("run deferred, will retry", "error", err, "interval", a.interval)
			a.setState(StateWaiting, err.Error())
		default:
			a.logger.Error("fatal fault, stopping agent", "error", err)
			a.setState(StateError, err.Error())
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.interval):
		}
	}
}

// State reports the agent's current state and last error for the status API.
func (a *Agent) State() (string, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.lastError
}

func (a *Agent) setState(state, lastError string) {
	a.mu.Lock()
	a.state = state
	a.lastError = lastError
	a.mu.Unlock()
}
