package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user or command does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when signing up with an email that is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput is returned for arguments that fail validation
	// before reaching the database.
	ErrInvalidInput = errors.New("invalid input")
)

// StorageError represents an error from the database backend.
type StorageError struct {
	Backend   string // Driver name ("sqlite", "pgx", ...)
	Operation string // Operation that failed ("create_user", "history", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
