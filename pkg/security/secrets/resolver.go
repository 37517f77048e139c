package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver tries providers in order until one returns the secret.
type Resolver struct {
	providers []SecretProvider
	logger    *slog.Logger
}

// NewResolver creates a resolver over providers.
func NewResolver(logger *slog.Logger, providers ...SecretProvider) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{providers: providers, logger: logger}
}

// Get returns the secret from the first provider that has it.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	var errs []error
	for _, p := range r.providers {
		value, err := p.GetSecret(ctx, name)
		if err == nil {
			r.logger.Debug("secret resolved", "provider", p.Provider(), "name", redactName(name))
			return value, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s (no providers configured)", ErrNotFound, name)
	}
	return "", fmt.Errorf("failed to get secret %q: %w", name, errors.Join(errs...))
}

// Expand replaces every ${secret:name} in s. Values without references are
// returned unchanged. References that cannot be resolved are left in place
// and reported in the error.
func (r *Resolver) Expand(ctx context.Context, s string) (string, error) {
	var errs []error
	out := secretRefRegex.ReplaceAllStringFunc(s, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := r.Get(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return match
		}
		return value
	})
	return out, errors.Join(errs...)
}

// redactName keeps secret names recognisable in debug logs without
// printing them whole.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
