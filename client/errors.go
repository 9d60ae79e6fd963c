package client

import (
	"errors"
	"fmt"
)

// BackendError reports a failed round trip to the remote backend:
// transport failure, non-success status, or a malformed response body.
//
// The backend's error payload is preserved unmodified in Payload for
// diagnostics; the core never parses or repairs it.
type BackendError struct {
	// Status is the HTTP status code, or 0 for transport failures.
	Status int

	// URL is the request URL that failed.
	URL string

	// Payload is the raw response body as returned by the backend.
	Payload []byte

	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("backend request %s: %v", e.URL, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("backend request %s: status %d: %v", e.URL, e.Status, e.Err)
	case len(e.Payload) > 0:
		return fmt.Sprintf("backend request %s: status %d: %s", e.URL, e.Status, e.Payload)
	default:
		return fmt.Sprintf("backend request %s: status %d", e.URL, e.Status)
	}
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError returns true if the error is a BackendError.
// Uses errors.As to handle wrapped errors.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
