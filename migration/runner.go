package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"evernote-drive/models"

	"golang.org/x/sync/errgroup"
)

// Options shape a run
type Options struct {
	// ParentFolderID holds the root folder, or the notebooks when RootFolder is empty
	ParentFolderID string
	// RootFolder groups every notebook folder of the run
	RootFolder string
	// ParallelFiles is how many export files are migrated at once; below 1 means 1
	ParallelFiles int

	Recorder Recorder
	Observer Observer
}

// Runner migrates export files: one folder per file, one document per note
type Runner struct {
	source   NoteSource
	resolver *Resolver
	uploader *Uploader
	opts     Options
	recorder Recorder
	observer Observer
	logger   *slog.Logger
}

func NewRunner(source NoteSource, resolver *Resolver, uploader *Uploader, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		source:   source,
		resolver: resolver,
		uploader: uploader,
		opts:     opts,
		recorder: opts.Recorder,
		observer: opts.Observer,
		logger:   logger,
	}
	if r.recorder == nil {
		r.recorder = nopRecorder{}
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.opts.ParallelFiles < 1 {
		r.opts.ParallelFiles = 1
	}
	return r
}

// Run migrates files and reports every outcome in the result. A failing note
// never stops its file and a failing file never stops the run. Cancelling ctx
// stops between files and between notes; documents already created remain.
func (r *Runner) Run(ctx context.Context, files []models.ExportFile) *models.MigrationResult {
	result := &models.MigrationResult{}

	parentID := r.opts.ParentFolderID
	if r.opts.RootFolder != "" {
		if ctx.Err() != nil {
			result.Cancelled = true
			return result
		}
		root, err := r.resolver.Resolve(ctx, r.opts.RootFolder, parentID)
		if err != nil {
			if ctx.Err() != nil {
				result.Cancelled = true
				return result
			}
			err = fmt.Errorf("resolving root folder %q: %w", r.opts.RootFolder, err)
			for _, file := range files {
				r.fileFailed(ctx, result, file, err)
			}
			return result
		}
		parentID = root.ID
	}

	perFile := make([]*models.MigrationResult, len(files))

	var g errgroup.Group
	g.SetLimit(r.opts.ParallelFiles)
	for i, file := range files {
		g.Go(func() error {
			perFile[i] = r.migrateFile(ctx, file, parentID)
			return nil
		})
	}
	g.Wait()

	for _, fr := range perFile {
		result.Merge(fr)
	}

	r.logger.Info("migration finished",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"files_failed", len(result.FileFailures),
		"cancelled", result.Cancelled,
	)
	return result
}

func (r *Runner) migrateFile(ctx context.Context, file models.ExportFile, parentID string) *models.MigrationResult {
	result := &models.MigrationResult{}
	logger := r.logger.With("file", file.Path, "notebook", file.NotebookName)

	if ctx.Err() != nil {
		result.Cancelled = true
		return result
	}

	// A file that is not an export must not leave an empty folder behind
	if err := r.source.Check(file.Path); err != nil {
		r.fileFailed(ctx, result, file, err)
		return result
	}

	folder, err := r.resolver.Resolve(ctx, file.NotebookName, parentID)
	if err != nil {
		if ctx.Err() != nil {
			result.Cancelled = true
			return result
		}
		r.fileFailed(ctx, result, file, fmt.Errorf("resolving folder: %w", err))
		return result
	}
	logger.Info("migrating notebook", "folder_id", folder.ID)

	for note, err := range r.source.Notes(file.Path) {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		if err != nil {
			var formatErr *models.FormatError
			if errors.As(err, &formatErr) && !formatErr.Fatal() {
				logger.Warn("skipping unreadable note", "entry", formatErr.Entry, "error", err)
				result.Warnings = append(result.Warnings, err.Error())
				r.recorder.EntrySkipped(ctx, file, formatErr.Entry, formatErr.Title, err)
				continue
			}
			r.fileFailed(ctx, result, file, err)
			break
		}

		if !r.migrateNote(ctx, result, file, note, folder, logger) {
			break
		}
	}

	logger.Info("notebook done", "succeeded", result.Succeeded, "failed", result.Failed)
	return result
}

// migrateNote uploads one note and its attachments. It returns false once ctx is done.
func (r *Runner) migrateNote(ctx context.Context, result *models.MigrationResult, file models.ExportFile, note models.Note, folder models.DriveFolder, logger *slog.Logger) bool {
	start := time.Now()

	docID, err := r.uploader.Upload(ctx, note, folder)
	if err != nil {
		if ctx.Err() != nil && FailureReason(err) != ReasonValidation {
			result.Cancelled = true
			return false
		}

		result.Failed++
		result.Errors = append(result.Errors, models.NoteError{
			File:    file.Path,
			Title:   note.Title,
			Message: err.Error(),
		})
		r.observer.NoteFailed(FailureReason(err))
		r.recorder.NoteFailed(ctx, file, note.Title, err)
		logger.Warn("note failed", "title", note.Title, "error", err)
		return true
	}

	result.Succeeded++
	r.observer.NoteUploaded(time.Since(start))
	r.recorder.NoteUploaded(ctx, file, note.Title, docID)

	for _, out := range r.uploader.UploadAttachments(ctx, note, folder) {
		r.recorder.AttachmentHandled(ctx, file, note.Title, out)
		if out.Err != nil {
			logger.Warn("attachment failed", "title", note.Title, "error", out.Err)
			result.Warnings = append(result.Warnings, out.Err.Error())
		}
	}
	return true
}

func (r *Runner) fileFailed(ctx context.Context, result *models.MigrationResult, file models.ExportFile, err error) {
	r.logger.Error("file failed", "file", file.Path, "notebook", file.NotebookName, "error", err)
	result.FileFailures = append(result.FileFailures, models.FileError{
		Path:     file.Path,
		Notebook: file.NotebookName,
		Message:  err.Error(),
	})
	r.observer.FileFailed()
	r.recorder.FileFailed(ctx, file, err)
}
