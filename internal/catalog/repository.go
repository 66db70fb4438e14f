package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	LastRun(ctx context.Context) (*Run, error)
	CountRuns(ctx context.Context) (int, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateRun(ctx context.Context, run *Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, start_frame, stop_frame, ortho_count, image_count,
			manifest_rows, conversion_required, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartFrame, run.StopFrame, run.OrthoCount, run.ImageCount,
		run.ManifestRows, boolToInt(run.ConversionRequired), run.Status,
		nullString(run.Error), run.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_frame, stop_frame, ortho_count, image_count,
			manifest_rows, conversion_required, status, error, created_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_frame, stop_frame, ortho_count, image_count,
			manifest_rows, conversion_required, status, error, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRunRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRepository) LastRun(ctx context.Context) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_frame, stop_frame, ortho_count, image_count,
			manifest_rows, conversion_required, status, error, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT 1
	`)
	return scanRun(row)
}

func (r *SQLiteRepository) CountRuns(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

func scanRun(row *sql.Row) (*Run, error) {
	var run Run
	var conversion int
	var errMsg sql.NullString
	var createdAt string

	err := row.Scan(&run.ID, &run.StartFrame, &run.StopFrame, &run.OrthoCount,
		&run.ImageCount, &run.ManifestRows, &conversion, &run.Status, &errMsg, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.ConversionRequired = conversion == 1
	run.Error = errMsg.String
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &run, nil
}

func scanRunRows(rows *sql.Rows) (*Run, error) {
	var run Run
	var conversion int
	var errMsg sql.NullString
	var createdAt string

	err := rows.Scan(&run.ID, &run.StartFrame, &run.StopFrame, &run.OrthoCount,
		&run.ImageCount, &run.ManifestRows, &conversion, &run.Status, &errMsg, &createdAt)
	if err != nil {
		return nil, err
	}

	run.ConversionRequired = conversion == 1
	run.Error = errMsg.String
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
