package models

import (
	"errors"
	"fmt"
)

// FormatError reports export markup that could not be read.
// Entry is the 1-based position of the offending note; zero means the whole
// file is unreadable.
type FormatError struct {
	Path  string
	Entry int
	Title string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Entry == 0 {
		return fmt.Sprintf("FormatError: %s: %v", e.Path, e.Err)
	}
	if e.Title != "" {
		return fmt.Sprintf("FormatError: %s: note %d (%q): %v", e.Path, e.Entry, e.Title, e.Err)
	}
	return fmt.Sprintf("FormatError: %s: note %d: %v", e.Path, e.Entry, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Fatal reports whether the error makes the rest of the file unreadable
func (e *FormatError) Fatal() bool { return e.Entry == 0 }

// RemoteError reports a remote store call that failed after retries
type RemoteError struct {
	Op        string
	Attempts  int
	Transient bool
	Err       error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("RemoteError: %s: failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ValidationError reports note data the remote store must not receive
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return "ValidationError: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Common errors
var (
	ErrNotAnExport   = errors.New("root element is not en-export")
	ErrEmptyExport   = errors.New("file contains no export markup")
	ErrEmptyNotebook = errors.New("notebook name is empty")
)
