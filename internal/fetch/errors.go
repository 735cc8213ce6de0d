package fetch

import (
	"errors"
	"fmt"
)

// Retrieval errors.
var (
	// ErrRetrieval matches every *RetrievalError.
	ErrRetrieval = errors.New("failed to retrieve page")

	// ErrInvalidURL is returned when a target is not an absolute HTTP(S) URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// RetrievalError describes a failed page retrieval.
type RetrievalError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to retrieve %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to retrieve %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Is makes every RetrievalError match ErrRetrieval.
func (e *RetrievalError) Is(target error) bool {
	return target == ErrRetrieval
}
