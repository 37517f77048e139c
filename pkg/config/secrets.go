package config

import (
	"context"
	"fmt"
)

// SecretExpander replaces ${secret:name} references in a value.
type SecretExpander interface {
	Expand(ctx context.Context, s string) (string, error)
}

// ResolveSecrets expands secret references in the credential fields of cfg
// in place. Every field that fails is reported in one ValidationError.
func ResolveSecrets(ctx context.Context, cfg *Config, x SecretExpander) error {
	type field struct {
		name  string
		value *string
	}
	fields := []field{
		{"database.dsn", &cfg.Database.DSN},
		{"client.api_key", &cfg.Client.APIKey},
	}
	for i := range cfg.Security.Authentication.Keys {
		fields = append(fields, field{
			name:  fmt.Sprintf("security.authentication.keys[%d].key", i),
			value: &cfg.Security.Authentication.Keys[i].Key,
		})
	}

	var errs []FieldError
	for _, f := range fields {
		out, err := x.Expand(ctx, *f.value)
		if err != nil {
			errs = append(errs, FieldError{Field: f.name, Message: err.Error()})
			continue
		}
		*f.value = out
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
