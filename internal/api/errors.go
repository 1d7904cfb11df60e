package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for Job Record Store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested job record does not exist.
	ErrNotFound = errors.New("job not found")
)

// APIError is a non-2xx response from the backend. The message is the
// server-provided text, surfaced verbatim to the user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}
