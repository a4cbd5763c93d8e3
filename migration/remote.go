package migration

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"evernote-drive/models"
	"evernote-drive/retry"
	"evernote-drive/validator"
)

// Remote operation names used in errors, logs and metrics
const (
	OpFindFolder     = "find_folder"
	OpCreateFolder   = "create_folder"
	OpCreateDocument = "create_document"
	OpCreateFile     = "create_file"
)

// Failure reasons reported to the Observer
const (
	ReasonValidation = "validation"
	ReasonRemote     = "remote"
	ReasonOther      = "other"
)

// FailureReason classifies a note failure
func FailureReason(err error) string {
	var valErr *models.ValidationError
	var remoteErr *models.RemoteError
	switch {
	case errors.As(err, &valErr):
		return ReasonValidation
	case errors.As(err, &remoteErr):
		return ReasonRemote
	default:
		return ReasonOther
	}
}

// callRemote runs fn under policy and turns a final failure into *models.RemoteError
func callRemote(ctx context.Context, policy retry.Policy, op string, observer Observer, logger *slog.Logger, fn func(ctx context.Context) error) error {
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		observer.Retried(op)
		logger.Warn("retrying remote call", "op", op, "attempt", attempt, "delay", delay, "error", err)
	}

	attempts, err := retry.Do(ctx, policy, fn)
	if err != nil {
		return &models.RemoteError{
			Op:        op,
			Attempts:  attempts,
			Transient: retry.IsTransient(err),
			Err:       err,
		}
	}
	return nil
}

// validationError flattens validator output into the first failing field
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &models.ValidationError{Field: fieldErrs[0].Field, Reason: fieldErrs[0].Message, Err: err}
	}
	return &models.ValidationError{Reason: err.Error(), Err: err}
}
