package migration

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"sync"

	"evernote-drive/models"
	"evernote-drive/retry"
	"evernote-drive/validator"

	"golang.org/x/sync/singleflight"
)

// preferredExt overrides mime's alphabetical pick for common attachment types
var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/html":       ".html",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
}

// Uploader turns notes into documents inside a resolved folder
type Uploader struct {
	store    RemoteStore
	files    AttachmentStore
	policy   retry.Policy
	validate *validator.Validator
	observer Observer
	logger   *slog.Logger

	// uploaded maps folder ID and resource md5 to the file already created
	flight   singleflight.Group
	mu       sync.Mutex
	uploaded map[string]string
}

// NewUploader creates an uploader. A nil files store disables attachments.
func NewUploader(store RemoteStore, files AttachmentStore, policy retry.Policy, observer Observer, logger *slog.Logger) *Uploader {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		store:    store,
		files:    files,
		policy:   policy,
		validate: validator.New(),
		observer: observer,
		logger:   logger,
		uploaded: make(map[string]string),
	}
}

// Upload validates note and creates its document in folder. Validation
// failures are returned as *models.ValidationError without touching the
// store; remote failures as *models.RemoteError once retries are spent.
func (u *Uploader) Upload(ctx context.Context, note models.Note, folder models.DriveFolder) (string, error) {
	if err := u.validate.Validate(note); err != nil {
		return "", validationError(err)
	}

	doc := models.Document{
		Title:      note.Title,
		Content:    note.Content,
		ParentID:   folder.ID,
		CreatedAt:  note.CreatedAt,
		ModifiedAt: note.UpdatedAt,
		Tags:       note.Tags,
	}

	var docID string
	err := callRemote(ctx, u.policy, OpCreateDocument, u.observer, u.logger, func(ctx context.Context) error {
		var err error
		docID, err = u.store.CreateDocument(ctx, doc)
		return err
	})
	if err != nil {
		return "", err
	}

	u.logger.Debug("note uploaded", "title", note.Title, "document_id", docID, "folder_id", folder.ID)
	return docID, nil
}

// AttachmentsEnabled reports whether resources are uploaded
func (u *Uploader) AttachmentsEnabled() bool {
	return u.files != nil
}

// UploadAttachments uploads every resource of note next to its document and
// reports one outcome per resource. A resource whose bytes were already
// uploaded into folder is not sent again; its outcome points at that file.
// A failure never stops the others.
func (u *Uploader) UploadAttachments(ctx context.Context, note models.Note, folder models.DriveFolder) []models.AttachmentOutcome {
	if u.files == nil || len(note.Resources) == 0 {
		return nil
	}

	outcomes := make([]models.AttachmentOutcome, 0, len(note.Resources))
	for i, res := range note.Resources {
		att := models.Attachment{
			Name:     AttachmentName(note, i),
			Mime:     res.Mime,
			ParentID: folder.ID,
			Data:     res.Data,
		}
		out := models.AttachmentOutcome{Name: att.Name, Hash: resourceHash(res)}

		out.FileID, out.Reused, out.Err = u.uploadOnce(ctx, folder.ID+"\x00"+out.Hash, att)
		switch {
		case out.Err != nil:
			out.Err = fmt.Errorf("attachment %q of note %q: %w", att.Name, note.Title, out.Err)
		case out.Reused:
			u.logger.Debug("attachment already uploaded", "name", att.Name, "title", note.Title, "md5", out.Hash, "file_id", out.FileID)
		default:
			u.logger.Debug("attachment uploaded", "name", att.Name, "title", note.Title, "md5", out.Hash, "bytes", len(att.Data))
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// uploadOnce creates att unless a file with the same key was created before.
// Concurrent callers with one key share a single upload.
func (u *Uploader) uploadOnce(ctx context.Context, key string, att models.Attachment) (string, bool, error) {
	if id, ok := u.uploadedFile(key); ok {
		return id, true, nil
	}

	reused := true
	v, err, _ := u.flight.Do(key, func() (any, error) {
		if id, ok := u.uploadedFile(key); ok {
			return id, nil
		}
		reused = false

		var id string
		err := callRemote(ctx, u.policy, OpCreateFile, u.observer, u.logger, func(ctx context.Context) error {
			var err error
			id, err = u.files.CreateFile(ctx, att)
			return err
		})
		if err != nil {
			return "", err
		}

		u.mu.Lock()
		u.uploaded[key] = id
		u.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), reused, nil
}

func (u *Uploader) uploadedFile(key string) (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id, ok := u.uploaded[key]
	return id, ok
}

func resourceHash(res models.Resource) string {
	if res.Hash != "" {
		return res.Hash
	}
	sum := md5.Sum(res.Data)
	return hex.EncodeToString(sum[:])
}

// AttachmentName names the i-th resource of note. The export's file name wins;
// otherwise the note title is used, numbered when the note has several resources.
func AttachmentName(note models.Note, i int) string {
	res := note.Resources[i]
	if res.Filename != "" {
		return res.Filename
	}

	title := note.Title
	if title == "" {
		title = "untitled"
	}

	ext := extensionFor(res.Mime)
	if len(note.Resources) > 1 {
		return fmt.Sprintf("%s_%d%s", title, i+1, ext)
	}
	return title + ext
}

func extensionFor(mimeType string) string {
	if ext, ok := preferredExt[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
