package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProfileNotSet is returned when a remote call is attempted without a connection profile.
	ErrProfileNotSet = NewValidationError("GitLab connection is not configured, set base URL and token first")

	// ErrGroupNotFound is returned when a local group does not exist.
	ErrGroupNotFound = errors.New("local group not found")
)

// RemoteError is a non-success response of the remote service.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("GitLab API error %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// TransportError means the remote service could not be reached at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("GitLab request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is raised before any side effect when required input is missing or malformed.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError is a failure of the local persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("local store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the failed call.
// Only transport failures are considered retryable.
func IsRetryable(err error) bool {
	var transportErr *TransportError

	return errors.As(err, &transportErr)
}
