package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no provider holds the secret.
var ErrNotFound = errors.New("secret not found")

// SecretProvider retrieves secrets from one backend.
type SecretProvider interface {
	// GetSecret returns the secret value, or an error wrapping ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the provider name ("env", "file").
	Provider() string
}
