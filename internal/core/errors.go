package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned before any I/O when required input is missing.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned when a conversation or FAQ does not exist for the caller.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller lacks the role an operation needs.
	ErrForbidden = errors.New("admin privileges required")
	// ErrCompletionUnavailable marks completion calls refused without reaching
	// the upstream service.
	ErrCompletionUnavailable = errors.New("completion service temporarily unavailable")
)

// StorageError wraps a failed read from the conversation or knowledge store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UpstreamError is returned when the completion service answers with a
// non-success status or a payload that cannot be used. Status is 0 when the
// request never got a response.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		if e.Body != "" {
			return fmt.Sprintf("AI API error: %v: %s", e.Err, e.Body)
		}
		return fmt.Sprintf("AI API error: %v", e.Err)
	}
	return fmt.Sprintf("AI API error (status %d): %s", e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}
