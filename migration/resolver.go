package migration

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"evernote-drive/models"
	"evernote-drive/retry"
	"evernote-drive/validator"

	"golang.org/x/sync/singleflight"
)

type folderRequest struct {
	Name string `json:"name" validate:"required,notblank,drivename,max=255"`
}

// Resolver maps a notebook name to exactly one remote folder, reusing an
// existing folder of the same name and creating one otherwise.
type Resolver struct {
	store    RemoteStore
	policy   retry.Policy
	validate *validator.Validator
	observer Observer
	logger   *slog.Logger

	flight singleflight.Group

	mu       sync.Mutex
	resolved map[string]models.DriveFolder
}

func NewResolver(store RemoteStore, policy retry.Policy, observer Observer, logger *slog.Logger) *Resolver {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		policy:   policy,
		validate: validator.New(),
		observer: observer,
		logger:   logger,
		resolved: make(map[string]models.DriveFolder),
	}
}

// Resolve returns the folder named name under parentID ("" is the store root).
// Folders resolved earlier in the run are remembered, since a folder created
// moments ago may not show up in search results yet.
func (r *Resolver) Resolve(ctx context.Context, name, parentID string) (models.DriveFolder, error) {
	if strings.TrimSpace(name) == "" {
		return models.DriveFolder{}, &models.ValidationError{
			Field:  "name",
			Reason: "empty notebook name",
			Err:    models.ErrEmptyNotebook,
		}
	}
	if err := r.validate.Validate(folderRequest{Name: name}); err != nil {
		return models.DriveFolder{}, validationError(err)
	}

	key := parentID + "\x00" + name
	if folder, ok := r.cached(key); ok {
		return folder, nil
	}

	// Callers asking for the same folder share one find-or-create
	v, err, _ := r.flight.Do(key, func() (any, error) {
		if folder, ok := r.cached(key); ok {
			return folder, nil
		}
		folder, err := r.findOrCreate(ctx, name, parentID)
		if err != nil {
			return models.DriveFolder{}, err
		}
		r.mu.Lock()
		r.resolved[key] = folder
		r.mu.Unlock()
		return folder, nil
	})
	if err != nil {
		return models.DriveFolder{}, err
	}
	return v.(models.DriveFolder), nil
}

func (r *Resolver) cached(key string) (models.DriveFolder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	folder, ok := r.resolved[key]
	return folder, ok
}

func (r *Resolver) findOrCreate(ctx context.Context, name, parentID string) (models.DriveFolder, error) {
	var (
		id    string
		found bool
	)
	err := callRemote(ctx, r.policy, OpFindFolder, r.observer, r.logger, func(ctx context.Context) error {
		var err error
		id, found, err = r.store.FindFolder(ctx, name, parentID)
		return err
	})
	if err != nil {
		return models.DriveFolder{}, err
	}

	if found {
		r.logger.Info("reusing folder", "name", name, "folder_id", id)
	} else {
		attempt := 0
		err = callRemote(ctx, r.policy, OpCreateFolder, r.observer, r.logger, func(ctx context.Context) error {
			attempt++
			if attempt > 1 {
				// A failed create may still have made the folder
				if existing, ok, err := r.store.FindFolder(ctx, name, parentID); err == nil && ok {
					id = existing
					return nil
				}
			}
			var err error
			id, err = r.store.CreateFolder(ctx, name, parentID)
			return err
		})
		if err != nil {
			return models.DriveFolder{}, err
		}
		r.logger.Info("created folder", "name", name, "folder_id", id)
	}

	return models.DriveFolder{ID: id, Name: name}, nil
}
