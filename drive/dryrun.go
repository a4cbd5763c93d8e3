package drive

import (
	"context"
	"log/slog"
	"sync"

	"evernote-drive/models"

	"github.com/google/uuid"
)

// DryRunService stands in for Drive when nothing should be uploaded.
// Folders are remembered so lookups behave like the real store within a run.
type DryRunService struct {
	logger *slog.Logger

	mu      sync.Mutex
	folders map[string]string
}

// NewDryRunService creates an in-memory store that only logs
func NewDryRunService(logger *slog.Logger) *DryRunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunService{
		logger:  logger,
		folders: make(map[string]string),
	}
}

func folderKey(name, parentID string) string {
	return parentOrRoot(parentID) + "\x00" + name
}

func newDryRunID() string {
	return "dry-run-" + uuid.NewString()
}

func (d *DryRunService) FindFolder(_ context.Context, name, parentID string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.folders[folderKey(name, parentID)]
	return id, ok, nil
}

func (d *DryRunService) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := newDryRunID()
	d.folders[folderKey(name, parentID)] = id
	d.logger.Info("dry run: would create folder", "name", name, "parent", parentOrRoot(parentID))
	return id, nil
}

func (d *DryRunService) CreateDocument(_ context.Context, doc models.Document) (string, error) {
	d.logger.Info("dry run: would create document",
		"title", doc.Title,
		"parent", doc.ParentID,
		"bytes", len(doc.Content),
		"tags", doc.Tags,
	)
	return newDryRunID(), nil
}

func (d *DryRunService) CreateFile(_ context.Context, att models.Attachment) (string, error) {
	d.logger.Info("dry run: would upload attachment",
		"name", att.Name,
		"mime", att.Mime,
		"parent", att.ParentID,
		"bytes", len(att.Data),
	)
	return newDryRunID(), nil
}
