package models

import (
	"fmt"
	"strings"
)

// NoteError is one failed note in a run
type NoteError struct {
	File    string `json:"file"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// FileError is one export file that could not be processed
type FileError struct {
	Path     string `json:"path"`
	Notebook string `json:"notebook"`
	Message  string `json:"message"`
}

// AttachmentOutcome is what happened to one resource of an uploaded note
type AttachmentOutcome struct {
	Name   string
	Hash   string
	FileID string
	Reused bool
	Err    error
}

// MigrationResult aggregates the outcome of a run
type MigrationResult struct {
	Succeeded    int         `json:"succeeded"`
	Failed       int         `json:"failed"`
	Errors       []NoteError `json:"errors"`
	FileFailures []FileError `json:"file_failures"`
	Warnings     []string    `json:"warnings"`
	Cancelled    bool        `json:"cancelled"`
}

// Total returns the number of notes attempted
func (r *MigrationResult) Total() int {
	return r.Succeeded + r.Failed
}

// HasFileFailures reports whether any export file failed as a whole
func (r *MigrationResult) HasFileFailures() bool {
	return len(r.FileFailures) > 0
}

// Merge appends other into r. Callers serialize access.
func (r *MigrationResult) Merge(other *MigrationResult) {
	if other == nil {
		return
	}
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
	r.FileFailures = append(r.FileFailures, other.FileFailures...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Cancelled = r.Cancelled || other.Cancelled
}

// Summary renders the result for the terminal
func (r *MigrationResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Migration summary: %d succeeded, %d failed (total: %d)", r.Succeeded, r.Failed, r.Total())
	if len(r.FileFailures) > 0 {
		fmt.Fprintf(&b, ", %d file(s) failed", len(r.FileFailures))
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, ", %d warning(s)", len(r.Warnings))
	}
	if r.Cancelled {
		b.WriteString(", cancelled")
	}
	b.WriteString("\n")

	for _, f := range r.FileFailures {
		fmt.Fprintf(&b, "  file failed: %s: %s\n", f.Path, f.Message)
	}
	for _, e := range r.Errors {
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "  note failed: %s: %s\n", title, e.Message)
	}
	return b.String()
}
