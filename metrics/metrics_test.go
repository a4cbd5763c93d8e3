package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.NoteUploaded(120 * time.Millisecond)
	m.NoteUploaded(80 * time.Millisecond)
	m.NoteFailed("validation")
	m.NoteFailed("remote")
	m.NoteFailed("remote")
	m.FileFailed()
	m.Retried("create_document")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notesUploaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notesFailed.WithLabelValues("validation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notesFailed.WithLabelValues("remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteRetries.WithLabelValues("create_document")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.uploadDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.NoteUploaded(time.Second)
	m.NoteFailed("remote")

	path := filepath.Join(t.TempDir(), "evernote_drive.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, "evernote_drive_notes_uploaded_total 1")
	assert.Contains(t, out, `evernote_drive_notes_failed_total{reason="remote"} 1`)
	assert.Contains(t, out, "evernote_drive_note_upload_duration_seconds_count 1")
	assert.Contains(t, out, "evernote_drive_last_run_timestamp_seconds")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "out.prom"))
	assert.Error(t, err)
}
