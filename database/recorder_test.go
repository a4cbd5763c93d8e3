package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"evernote-drive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecorder_WritesAfterCancel(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	run, err := repo.StartRun(context.Background(), []string{"Personal.enex"}, false)
	require.NoError(t, err)

	rec := NewRunRecorder(repo, run.ID, nil)
	file := models.ExportFile{Path: "Personal.enex", NotebookName: "Personal"}

	ctx, cancel := context.WithCancel(context.Background())
	rec.NoteUploaded(ctx, file, "Groceries", "doc-1")
	cancel()
	rec.NoteFailed(ctx, file, "", errors.New("ValidationError: empty title"))
	rec.FileFailed(ctx, models.ExportFile{Path: "Work.enex", NotebookName: "Work"}, errors.New("truncated"))

	notes, err := repo.ListNoteResults(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, models.NoteStatusUploaded, notes[0].Status)
	assert.Equal(t, "doc-1", notes[0].DocumentID)
	assert.Equal(t, "Personal", notes[0].Notebook)
	assert.Equal(t, models.NoteStatusFailed, notes[1].Status)
	assert.Equal(t, "ValidationError: empty title", notes[1].Error)

	files, err := repo.ListFileFailures(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Work.enex", files[0].Path)
	assert.Equal(t, "truncated", files[0].Error)
}

func TestRunRecorder_WriteFailureIsLogged(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := NewRunRecorder(repo, "missing-run", logger)

	assert.NotPanics(t, func() {
		rec.NoteUploaded(context.Background(), models.ExportFile{Path: "a.enex"}, "A", "doc")
	})
	assert.Contains(t, buf.String(), "failed to record note result")
}

func TestRunRecorder_SkippedEntries(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	run, err := repo.StartRun(ctx, []string{"Mixed.enex"}, false)
	require.NoError(t, err)

	rec := NewRunRecorder(repo, run.ID, nil)
	file := models.ExportFile{Path: "Mixed.enex", NotebookName: "Mixed"}
	rec.NoteUploaded(ctx, file, "a", "doc-1")
	rec.EntrySkipped(ctx, file, 2, "bad", errors.New(`FormatError: Mixed.enex: note 2 ("bad"): XML syntax error`))
	rec.NoteFailed(ctx, file, "", errors.New("ValidationError: empty title"))

	problems, err := repo.ListNoteResults(ctx, run.ID, models.NoteStatusFailed, models.NoteStatusSkipped)
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, models.NoteStatusSkipped, problems[0].Status)
	assert.Equal(t, "bad", problems[0].Title)
	assert.Contains(t, problems[0].Error, "note 2")
	assert.Equal(t, models.NoteStatusFailed, problems[1].Status)

	skipped, err := repo.ListNoteResults(ctx, run.ID, models.NoteStatusSkipped)
	require.NoError(t, err)
	assert.Len(t, skipped, 1)
}

func TestRunRecorder_Attachments(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	run, err := repo.StartRun(ctx, []string{"Letters.enex"}, false)
	require.NoError(t, err)

	rec := NewRunRecorder(repo, run.ID, nil)
	file := models.ExportFile{Path: "Letters.enex", NotebookName: "Letters"}
	const hash = "5d41402abc4b2a76b9719d911017c592"
	rec.AttachmentHandled(ctx, file, "First", models.AttachmentOutcome{Name: "First.png", Hash: hash, FileID: "file-1"})
	rec.AttachmentHandled(ctx, file, "Second", models.AttachmentOutcome{Name: "Second.png", Hash: hash, FileID: "file-1", Reused: true})
	rec.AttachmentHandled(ctx, file, "Third", models.AttachmentOutcome{Name: "scan.pdf", Hash: "abc", Err: errors.New("quota exceeded")})

	got, err := repo.ListAttachmentResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "First", got[0].NoteTitle)
	assert.Equal(t, hash, got[0].Hash)
	assert.Equal(t, "file-1", got[0].FileID)
	assert.False(t, got[0].Reused)
	assert.Empty(t, got[0].Error)

	assert.True(t, got[1].Reused)
	assert.Equal(t, "file-1", got[1].FileID)

	assert.Empty(t, got[2].FileID)
	assert.Equal(t, "quota exceeded", got[2].Error)
	assert.Equal(t, "Letters", got[2].Notebook)
}
