package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
)

// ExportRunRepository records transcript exports.
type ExportRunRepository struct {
	db *sql.DB
}

// NewExportRunRepository creates a new [ExportRunRepository] with the given database connection
func NewExportRunRepository(db *sql.DB) *ExportRunRepository {
	return &ExportRunRepository{db: db}
}

// Create inserts run, assigning its ID and CreatedAt.
func (r *ExportRunRepository) Create(run *models.ExportRun) error {
	if !run.Format.Valid() {
		return fmt.Errorf("%w: export format %q", shared.ErrInvalidArgument, run.Format)
	}
	if run.OutputDir == "" {
		return fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}

	run.ID = shared.GenerateID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO export_runs (id, format, output_dir, total, succeeded, failed, manifest_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	manifest := sql.NullString{String: run.ManifestPath, Valid: run.ManifestPath != ""}
	_, err := r.db.Exec(query, run.ID, string(run.Format), run.OutputDir, run.Total, run.Succeeded, run.Failed, manifest, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert export run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *ExportRunRepository) Get(id string) (*models.ExportRun, error) {
	query := `
		SELECT id, format, output_dir, total, succeeded, failed, manifest_path, created_at
		FROM export_runs
		WHERE id = ?
	`

	run, err := scanExportRun(r.db.QueryRow(query, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: export run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// List returns the most recent runs first, at most limit of them. limit <= 0 returns all.
func (r *ExportRunRepository) List(limit int) ([]*models.ExportRun, error) {
	query := `
		SELECT id, format, output_dir, total, succeeded, failed, manifest_path, created_at
		FROM export_runs
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExportRun
	for rows.Next() {
		run, err := scanExportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExportRun(s scanner) (*models.ExportRun, error) {
	var (
		run      models.ExportRun
		format   string
		manifest sql.NullString
	)

	err := s.Scan(&run.ID, &format, &run.OutputDir, &run.Total, &run.Succeeded, &run.Failed, &manifest, &run.CreatedAt)
	if isNoRows(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan export run: %w", err)
	}

	run.Format = models.ExportFormat(format)
	run.ManifestPath = manifest.String
	return &run, nil
}
