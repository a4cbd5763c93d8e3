package database

import (
	"context"
	"log/slog"

	"evernote-drive/models"
)

// RunRecorder writes one run's outcomes as they happen. A failed write is
// logged and never interrupts the migration.
type RunRecorder struct {
	repo   *Repository
	runID  string
	logger *slog.Logger
}

func NewRunRecorder(repo *Repository, runID string, logger *slog.Logger) *RunRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunRecorder{repo: repo, runID: runID, logger: logger}
}

func (rr *RunRecorder) NoteUploaded(ctx context.Context, file models.ExportFile, title, docID string) {
	rr.recordNote(ctx, models.NoteResult{
		File:       file.Path,
		Notebook:   file.NotebookName,
		Title:      title,
		DocumentID: docID,
		Status:     models.NoteStatusUploaded,
	})
}

func (rr *RunRecorder) NoteFailed(ctx context.Context, file models.ExportFile, title string, err error) {
	rr.recordNote(ctx, models.NoteResult{
		File:     file.Path,
		Notebook: file.NotebookName,
		Title:    title,
		Status:   models.NoteStatusFailed,
		Error:    err.Error(),
	})
}

func (rr *RunRecorder) FileFailed(ctx context.Context, file models.ExportFile, err error) {
	// Reports are written even after cancellation
	ctx = context.WithoutCancel(ctx)
	if werr := rr.repo.RecordFileFailure(ctx, models.FileResult{
		RunID:    rr.runID,
		Path:     file.Path,
		Notebook: file.NotebookName,
		Error:    err.Error(),
	}); werr != nil {
		rr.logger.Warn("failed to record file failure", "file", file.Path, "error", werr)
	}
}

func (rr *RunRecorder) EntrySkipped(ctx context.Context, file models.ExportFile, _ int, title string, err error) {
	rr.recordNote(ctx, models.NoteResult{
		File:     file.Path,
		Notebook: file.NotebookName,
		Title:    title,
		Status:   models.NoteStatusSkipped,
		Error:    err.Error(),
	})
}

func (rr *RunRecorder) AttachmentHandled(ctx context.Context, file models.ExportFile, noteTitle string, out models.AttachmentOutcome) {
	res := models.AttachmentResult{
		RunID:     rr.runID,
		File:      file.Path,
		Notebook:  file.NotebookName,
		NoteTitle: noteTitle,
		Name:      out.Name,
		Hash:      out.Hash,
		FileID:    out.FileID,
		Reused:    out.Reused,
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	if err := rr.repo.RecordAttachment(context.WithoutCancel(ctx), res); err != nil {
		rr.logger.Warn("failed to record attachment result", "file", file.Path, "name", out.Name, "error", err)
	}
}

func (rr *RunRecorder) recordNote(ctx context.Context, res models.NoteResult) {
	res.RunID = rr.runID
	if err := rr.repo.RecordNote(context.WithoutCancel(ctx), res); err != nil {
		rr.logger.Warn("failed to record note result", "file", res.File, "title", res.Title, "error", err)
	}
}
