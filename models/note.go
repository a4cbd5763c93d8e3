package models

import "time"

// Note is a single entry parsed from an export file
type Note struct {
	Title     string     `json:"title" validate:"required,notblank"`
	Content   string     `json:"content"`
	Text      string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Tags      []string   `json:"tags"`
	Author    string     `json:"author,omitempty"`
	SourceURL string     `json:"source_url,omitempty"`
	Resources []Resource `json:"-"`
}

// HasCreatedAt reports whether the export carried a creation time
func (n Note) HasCreatedAt() bool {
	return !n.CreatedAt.IsZero()
}

// Resource is an attachment embedded in a note
type Resource struct {
	Filename string
	Mime     string
	Data     []byte
	Hash     string
}

// ExportFile is one .enex file and the notebook it maps to
type ExportFile struct {
	Path         string `json:"path"`
	NotebookName string `json:"notebook_name" validate:"required,notblank"`
}

// DriveFolder is the remote folder a notebook's notes go into
type DriveFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Document is a create-document request against the remote store
type Document struct {
	Title      string
	Content    string
	ParentID   string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Tags       []string
}

// Attachment is a create-file request for a note resource
type Attachment struct {
	Name     string
	Mime     string
	ParentID string
	Data     []byte
}
