package models

import "time"

const (
	NoteStatusUploaded = "uploaded"
	NoteStatusFailed   = "failed"
	// NoteStatusSkipped marks an export entry that could not be read
	NoteStatusSkipped = "skipped"
)

// Run is one invocation of the migrate command as stored in the report database
type Run struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DryRun      bool       `json:"dry_run"`
	Inputs      string     `json:"inputs"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	FilesFailed int        `json:"files_failed"`
	Cancelled   bool       `json:"cancelled"`
}

// NoteResult is the stored outcome of one note
type NoteResult struct {
	RunID      string    `json:"run_id"`
	File       string    `json:"file"`
	Notebook   string    `json:"notebook"`
	Title      string    `json:"title"`
	DocumentID string    `json:"document_id,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileResult is the stored failure of a whole export file
type FileResult struct {
	RunID     string    `json:"run_id"`
	Path      string    `json:"path"`
	Notebook  string    `json:"notebook"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResult is the stored outcome of one note resource. Hash is the
// md5 of the resource bytes; Reused means an identical file was already in
// the folder and nothing was uploaded.
type AttachmentResult struct {
	RunID     string    `json:"run_id"`
	File      string    `json:"file"`
	Notebook  string    `json:"notebook"`
	NoteTitle string    `json:"note_title"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	FileID    string    `json:"file_id,omitempty"`
	Reused    bool      `json:"reused"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
