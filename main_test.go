package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personalExport = `<?xml version="1.0" encoding="UTF-8"?>
<en-export>
<note><title>Groceries</title><content><![CDATA[<en-note><div>milk</div></en-note>]]></content></note>
<note><content><![CDATA[<en-note><div>orphan</div></en-note>]]></content></note>
<note><title>Trip</title><content><![CDATA[<en-note><div>Lisbon</div></en-note>]]></content><tag>travel</tag></note>
</en-export>
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_DryRunMigrationAndReport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	exports := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(exports, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(exports, "Personal.enex"), []byte(personalExport), 0o644))

	dbPath := filepath.Join(dir, "runs.db")
	promPath := filepath.Join(dir, "evernote_drive.prom")

	out, err := execute(t, "migrate", "--dry-run", "--report-db", dbPath, "--metrics-file", promPath, exports)
	require.NoError(t, err)
	assert.Contains(t, out, "Migration summary: 2 succeeded, 1 failed (total: 3)")
	assert.Contains(t, out, "note failed: (untitled): ValidationError: empty title")
	assert.Contains(t, out, "Run report: ")

	prom, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "evernote_drive_notes_uploaded_total 2")
	assert.Contains(t, string(prom), `evernote_drive_notes_failed_total{reason="validation"} 1`)

	out, err = execute(t, "report", "--report-db", dbPath, "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, "(dry run)")
	assert.Contains(t, out, "2 succeeded, 1 failed, 0 file(s) failed")
	assert.Contains(t, out, "(untitled)")
	assert.NotContains(t, out, "Groceries")
}

const lettersExport = `<?xml version="1.0" encoding="UTF-8"?>
<en-export>
<note><title>First</title><content><![CDATA[<en-note>hi</en-note>]]></content><resource><data encoding="base64">aGVsbG8=</data><mime>image/png</mime></resource></note>
<note><title>Garbled</title><content><![CDATA[<en-note><div>open</en-note>]]></content></note>
<note><title>Second</title><content><![CDATA[<en-note>again</en-note>]]></content><resource><data encoding="base64">aGVsbG8=</data><mime>image/png</mime></resource></note>
</en-export>
`

func TestCLI_ReportShowsSkippedEntriesAndAttachments(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	export := filepath.Join(dir, "Letters.enex")
	require.NoError(t, os.WriteFile(export, []byte(lettersExport), 0o644))
	dbPath := filepath.Join(dir, "runs.db")

	out, err := execute(t, "migrate", "--dry-run", "--attachments", "--report-db", dbPath, "--metrics-file", "", export)
	require.NoError(t, err)
	assert.Contains(t, out, "Migration summary: 2 succeeded, 0 failed (total: 2), 1 warning(s)")

	out, err = execute(t, "report", "--report-db", dbPath, "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, "Garbled")
	assert.Contains(t, out, "skipped")
	assert.NotContains(t, out, "First")

	out, err = execute(t, "report", "--report-db", dbPath, "--failed=false")
	require.NoError(t, err)
	assert.Contains(t, out, "5d41402abc4b2a76b9719d911017c592")
	assert.Contains(t, out, "reused")
}

func TestCLI_FileFailureExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	bad := filepath.Join(dir, "Broken.enex")
	require.NoError(t, os.WriteFile(bad, []byte(`<notes/>`), 0o644))

	out, err := execute(t, "migrate", "--dry-run", "--attachments=false", "--report-db", "", "--metrics-file", "", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 export file(s) could not be migrated")
	assert.Contains(t, out, "file failed: "+bad)
}

func TestCLI_RejectsNonExportInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))

	_, err := execute(t, "migrate", "--dry-run", "--attachments=false", "--report-db", "", "--metrics-file", "", notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an .enex export")
}

func TestCLI_Version(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "evernote-drive dev\n", out)
}
