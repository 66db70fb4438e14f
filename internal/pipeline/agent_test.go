package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForState(t *testing.T, a *Agent, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if state, _ := a.State(); state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	state, lastErr := a.State()
	t.Fatalf("agent never reached state %q; state = %q, last error = %q", want, state, lastErr)
}

func TestAgent_RetriesRecoverableThenSucceeds(t *testing.T) {
	fx := newFixture(t)

	// Hide the images: the first runs defer with a recoverable fault.
	imageFolder := fx.opts.ImageFolder
	fx.opts.ImageFolder = filepath.Join(imageFolder, "pending")

	agent := NewAgent(fx.pipeline(), 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	waitForState(t, agent, StateWaiting)

	// The upstream stage catches up: images appear under the pending path.
	if err := os.MkdirAll(fx.opts.ImageFolder, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"img_0001.tif", "img_0002.tif"} {
		data, err := os.ReadFile(filepath.Join(imageFolder, name))
		if err != nil {
			t.Fatalf("read image: %v", err)
		}
		if err := os.WriteFile(filepath.Join(fx.opts.ImageFolder, name), data, 0644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}

	waitForState(t, agent, StateIdle)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() after cancel = %v, want nil", err)
	}

	if fx.runner.generateCalls != 1 {
		t.Errorf("camera generations = %d, want 1", fx.runner.generateCalls)
	}
}

func TestAgent_StopsOnFatal(t *testing.T) {
	fx := newFixture(t)
	fx.opts.OrthoFolder = filepath.Join(fx.opts.OrthoFolder, "absent")

	agent := NewAgent(fx.pipeline(), time.Minute, discardLogger())

	err := agent.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should return the fatal fault")
	}
	state, lastErr := agent.State()
	if state != StateError {
		t.Errorf("state = %q, want %q", state, StateError)
	}
	if lastErr == "" {
		t.Error("last error should be recorded")
	}
}
