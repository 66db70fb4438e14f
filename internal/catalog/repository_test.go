package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/navcam/navcam-agent/internal/db"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn())
	return database, repo
}

func testRun(createdAt time.Time) *Run {
	return &Run{
		ID:                 NewID(),
		StartFrame:         -1,
		StopFrame:          999999,
		OrthoCount:         10,
		ImageCount:         8,
		ManifestRows:       8,
		ConversionRequired: true,
		Status:             RunStatusCompleted,
		CreatedAt:          createdAt,
	}
}

func TestRepository_CreateAndGetRun(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	run := testRun(time.Now())
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetRun() returned nil for an existing run")
	}
	if got.ManifestRows != 8 {
		t.Errorf("ManifestRows = %d, want 8", got.ManifestRows)
	}
	if !got.ConversionRequired {
		t.Error("ConversionRequired not round-tripped")
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want empty", got.Error)
	}
}

func TestRepository_GetRun_Missing(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	got, err := repo.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got != nil {
		t.Error("GetRun() should return nil for a missing run")
	}
}

func TestRepository_ListRuns_NewestFirst(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		run := testRun(base.Add(time.Duration(i) * time.Minute))
		ids = append(ids, run.ID)
		if err := repo.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] {
		t.Errorf("ListRuns()[0].ID = %s, want newest %s", runs[0].ID, ids[2])
	}

	last, err := repo.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	if last == nil || last.ID != ids[2] {
		t.Errorf("LastRun() = %v, want %s", last, ids[2])
	}

	count, err := repo.CountRuns(ctx)
	if err != nil {
		t.Fatalf("CountRuns() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountRuns() = %d, want 3", count)
	}
}

func TestRepository_FailedRunKeepsError(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	run := testRun(time.Now())
	run.Status = RunStatusFailed
	run.Error = "no nav files in /flight/nav"
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Status != RunStatusFailed || got.Error != run.Error {
		t.Errorf("got (%s, %q), want (%s, %q)", got.Status, got.Error, RunStatusFailed, run.Error)
	}
}

func TestService_NilIsSafe(t *testing.T) {
	var svc *Service
	svc.RecordRun(context.Background(), &Run{})

	if run, err := svc.LastRun(context.Background()); err != nil || run != nil {
		t.Errorf("nil service LastRun() = (%v, %v), want (nil, nil)", run, err)
	}
}
