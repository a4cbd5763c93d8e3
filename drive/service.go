package drive

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"evernote-drive/models"
)

// Service is the main coordinator for all Drive operations
// It delegates to specialized managers for different concerns
type Service struct {
	client        *Client
	folderManager *FolderManager
	fileManager   *FileManager
}

// NewService creates a Drive service from an authorized HTTP client
func NewService(ctx context.Context, httpClient *http.Client) (*Service, error) {
	client, err := NewClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return NewServiceFromClient(client), nil
}

// NewServiceFromClient wires the managers around an existing client
func NewServiceFromClient(client *Client) *Service {
	return &Service{
		client:        client,
		folderManager: NewFolderManager(client),
		fileManager:   NewFileManager(client),
	}
}

// ==================== FOLDER OPERATIONS ====================

// FindFolder looks up a folder by exact name under parentID
func (s *Service) FindFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	folder, err := s.folderManager.Find(ctx, name, parentID)
	if err != nil {
		return "", false, err
	}
	if folder == nil {
		return "", false, nil
	}
	return folder.Id, true, nil
}

// CreateFolder creates a folder under parentID
func (s *Service) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	folder, err := s.folderManager.Create(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if folder.Id == "" {
		return "", errors.New("drive returned a folder without an id")
	}
	return folder.Id, nil
}

// ==================== DOCUMENT OPERATIONS ====================

// CreateDocument creates a Google Doc from the document's HTML content
func (s *Service) CreateDocument(ctx context.Context, doc models.Document) (string, error) {
	file, err := s.fileManager.CreateDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	return file.Id, nil
}

// CreateFile uploads an attachment as a regular Drive file
func (s *Service) CreateFile(ctx context.Context, att models.Attachment) (string, error) {
	file, err := s.fileManager.Create(ctx, att.Name, att.ParentID, att.Mime, bytes.NewReader(att.Data))
	if err != nil {
		return "", err
	}
	return file.Id, nil
}
