package drive

import (
	"context"

	"google.golang.org/api/drive/v3"
)

// FolderManager handles folder operations in Google Drive
type FolderManager struct {
	client *Client
}

// NewFolderManager creates a new folder manager
func NewFolderManager(client *Client) *FolderManager {
	return &FolderManager{client: client}
}

// Find returns the folder named exactly name under parentID, or nil.
// When several match, the oldest one wins so repeated runs agree.
func (fm *FolderManager) Find(ctx context.Context, name, parentID string) (*drive.File, error) {
	fileList, err := fm.client.Service().Files.List().
		Q(folderQuery(name, parentID)).
		Spaces("drive").
		OrderBy("createdTime").
		PageSize(10).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	// Only an exact, case-sensitive match counts
	for _, f := range fileList.Files {
		if f.Name == name {
			return f, nil
		}
	}

	return nil, nil
}

// Create creates a folder named name under parentID
func (fm *FolderManager) Create(ctx context.Context, name, parentID string) (*drive.File, error) {
	fileMetadata := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentOrRoot(parentID)},
	}

	return fm.client.Service().Files.Create(fileMetadata).
		Fields("id, name").
		Context(ctx).
		Do()
}
