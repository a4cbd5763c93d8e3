// Package migration moves parsed notes into the remote store, one folder per notebook.
package migration

import (
	"context"
	"iter"
	"time"

	"evernote-drive/models"
)

// RemoteStore is the part of Drive the migration needs.
// Production uses drive.Service; dry runs use drive.DryRunService.
type RemoteStore interface {
	FindFolder(ctx context.Context, name, parentID string) (string, bool, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	CreateDocument(ctx context.Context, doc models.Document) (string, error)
}

// AttachmentStore uploads note resources as plain files
type AttachmentStore interface {
	CreateFile(ctx context.Context, att models.Attachment) (string, error)
}

// NoteSource reads export files; enex.Parser implements it
type NoteSource interface {
	Check(path string) error
	Notes(path string) iter.Seq2[models.Note, error]
}

// Recorder persists per-note and per-file outcomes
type Recorder interface {
	NoteUploaded(ctx context.Context, file models.ExportFile, title, docID string)
	NoteFailed(ctx context.Context, file models.ExportFile, title string, err error)
	FileFailed(ctx context.Context, file models.ExportFile, err error)
	// EntrySkipped reports an unreadable note at 1-based position entry
	EntrySkipped(ctx context.Context, file models.ExportFile, entry int, title string, err error)
	AttachmentHandled(ctx context.Context, file models.ExportFile, noteTitle string, out models.AttachmentOutcome)
}

// Observer counts outcomes for metrics
type Observer interface {
	NoteUploaded(d time.Duration)
	NoteFailed(reason string)
	FileFailed()
	Retried(op string)
}

type nopRecorder struct{}

func (nopRecorder) NoteUploaded(context.Context, models.ExportFile, string, string)                        {}
func (nopRecorder) NoteFailed(context.Context, models.ExportFile, string, error)                           {}
func (nopRecorder) FileFailed(context.Context, models.ExportFile, error)                                   {}
func (nopRecorder) EntrySkipped(context.Context, models.ExportFile, int, string, error)                    {}
func (nopRecorder) AttachmentHandled(context.Context, models.ExportFile, string, models.AttachmentOutcome) {}

type nopObserver struct{}

func (nopObserver) NoteUploaded(time.Duration) {}
func (nopObserver) NoteFailed(string)          {}
func (nopObserver) FileFailed()                {}
func (nopObserver) Retried(string)             {}
