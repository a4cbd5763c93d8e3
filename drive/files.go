package drive

import (
	"context"
	"io"
	"strings"
	"time"

	"evernote-drive/models"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// appSource tags every file this tool creates
const appSource = "evernote-drive"

// FileManager handles document and file creation in Google Drive
type FileManager struct {
	client *Client
}

// NewFileManager creates a new file manager
func NewFileManager(client *Client) *FileManager {
	return &FileManager{client: client}
}

// CreateDocument uploads HTML content and lets Drive convert it to a Google Doc
func (fm *FileManager) CreateDocument(ctx context.Context, doc models.Document) (*drive.File, error) {
	fileMetadata := &drive.File{
		Name:          doc.Title,
		MimeType:      documentMimeType,
		Parents:       []string{parentOrRoot(doc.ParentID)},
		AppProperties: map[string]string{"source": appSource},
	}
	if len(doc.Tags) > 0 {
		fileMetadata.Description = "Tags: " + strings.Join(doc.Tags, ", ")
	}
	if !doc.CreatedAt.IsZero() {
		fileMetadata.CreatedTime = doc.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !doc.ModifiedAt.IsZero() {
		fileMetadata.ModifiedTime = doc.ModifiedAt.UTC().Format(time.RFC3339)
	}

	call := fm.client.Service().Files.Create(fileMetadata).
		Fields("id, name").
		Context(ctx)
	if doc.Content != "" {
		call = call.Media(strings.NewReader(doc.Content), googleapi.ContentType("text/html"))
	}

	return call.Do()
}

// Create creates a new file with the given content
func (fm *FileManager) Create(ctx context.Context, name, parentID, mimeType string, content io.Reader) (*drive.File, error) {
	fileMetadata := &drive.File{
		Name:          name,
		Parents:       []string{parentOrRoot(parentID)},
		MimeType:      mimeType,
		AppProperties: map[string]string{"source": appSource},
	}

	call := fm.client.Service().Files.Create(fileMetadata).
		Fields("id, name").
		Context(ctx)
	if mimeType != "" {
		call = call.Media(content, googleapi.ContentType(mimeType))
	} else {
		call = call.Media(content)
	}

	return call.Do()
}
