package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"evernote-drive/models"

	"github.com/google/uuid"
)

// Repository stores run reports. Nothing here is read back to decide what to migrate.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ==================== RUNS ====================

// StartRun opens a new run for the given inputs
func (r *Repository) StartRun(ctx context.Context, inputs []string, dryRun bool) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
		Inputs:    strings.Join(inputs, "\n"),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, dry_run, inputs)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.DryRun, run.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counts of a run
func (r *Repository) FinishRun(ctx context.Context, runID string, result *models.MigrationResult) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			succeeded = ?,
			failed = ?,
			files_failed = ?,
			cancelled = ?
		WHERE id = ?
	`, time.Now().UTC(), result.Succeeded, result.Failed, len(result.FileFailures), result.Cancelled, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun returns the run or nil when it does not exist
func (r *Repository) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	var finishedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, inputs,
			   succeeded, failed, files_failed, cancelled
		FROM runs WHERE id = ?
	`, runID).Scan(
		&run.ID, &run.StartedAt, &finishedAt, &run.DryRun, &run.Inputs,
		&run.Succeeded, &run.Failed, &run.FilesFailed, &run.Cancelled,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// LatestRun returns the most recently started run or nil when there is none
func (r *Repository) LatestRun(ctx context.Context) (*models.Run, error) {
	var runID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1
	`).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetRun(ctx, runID)
}

// ==================== RESULTS ====================

func (r *Repository) RecordNote(ctx context.Context, result models.NoteResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO note_results (run_id, file, notebook, title, document_id, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID, result.File, result.Notebook, result.Title,
		nullString(result.DocumentID), result.Status, nullString(result.Error), result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record note result: %w", err)
	}
	return nil
}

func (r *Repository) RecordFileFailure(ctx context.Context, result models.FileResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO file_results (run_id, path, notebook, error, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, result.RunID, result.Path, result.Notebook, result.Error, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record file failure: %w", err)
	}
	return nil
}

// ListNoteResults returns a run's note outcomes in the order they were recorded,
// limited to the given statuses when any are passed.
func (r *Repository) ListNoteResults(ctx context.Context, runID string, statuses ...string) ([]models.NoteResult, error) {
	query := `
		SELECT run_id, file, notebook, title, document_id, status, error, created_at
		FROM note_results
		WHERE run_id = ?`
	args := []any{runID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.NoteResult
	for rows.Next() {
		var res models.NoteResult
		var docID, errMsg sql.NullString
		if err := rows.Scan(
			&res.RunID, &res.File, &res.Notebook, &res.Title,
			&docID, &res.Status, &errMsg, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		res.DocumentID = docID.String
		res.Error = errMsg.String
		results = append(results, res)
	}

	return results, rows.Err()
}

func (r *Repository) ListFileFailures(ctx context.Context, runID string) ([]models.FileResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, path, notebook, error, created_at
		FROM file_results
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.FileResult
	for rows.Next() {
		var res models.FileResult
		if err := rows.Scan(&res.RunID, &res.Path, &res.Notebook, &res.Error, &res.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// ==================== ATTACHMENTS ====================

func (r *Repository) RecordAttachment(ctx context.Context, result models.AttachmentResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attachment_results (run_id, file, notebook, note_title, name, hash, file_id, reused, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID, result.File, result.Notebook, result.NoteTitle, result.Name, result.Hash,
		nullString(result.FileID), result.Reused, nullString(result.Error), result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record attachment result: %w", err)
	}
	return nil
}

// ListAttachmentResults returns a run's attachment outcomes in recording order
func (r *Repository) ListAttachmentResults(ctx context.Context, runID string) ([]models.AttachmentResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, file, notebook, note_title, name, hash, file_id, reused, error, created_at
		FROM attachment_results
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.AttachmentResult
	for rows.Next() {
		var res models.AttachmentResult
		var fileID, errMsg sql.NullString
		if err := rows.Scan(
			&res.RunID, &res.File, &res.Notebook, &res.NoteTitle, &res.Name, &res.Hash,
			&fileID, &res.Reused, &errMsg, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		res.FileID = fileID.String
		res.Error = errMsg.String
		results = append(results, res)
	}

	return results, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
