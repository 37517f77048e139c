package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateClient(&cfg.Client)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.request_timeout", Message: "request timeout must be positive"})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

// validDrivers lists the database/sql driver names the store registers.
var validDrivers = map[string]bool{
	"sqlite":   true,
	"sqlite3":  true,
	"pgx":      true,
	"postgres": true,
}

func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	if !validDrivers[cfg.Driver] {
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("unsupported driver %q (want sqlite, sqlite3, pgx or postgres)", cfg.Driver),
		})
	}

	switch cfg.Driver {
	case "pgx", "postgres":
		if cfg.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "database.dsn",
				Message: "dsn is required for PostgreSQL drivers",
			})
		}
	case "sqlite", "sqlite3":
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "database.path",
				Message: "path is required for SQLite drivers",
			})
		}
	}

	if cfg.Layout != "shared" && cfg.Layout != "per_user" {
		errs = append(errs, FieldError{
			Field:   "database.layout",
			Message: fmt.Sprintf("unknown layout %q (want shared or per_user)", cfg.Layout),
		})
	}

	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "database.max_open_conns", Message: "must be non-negative"})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "database.max_idle_conns", Message: "must be non-negative"})
	}
	if cfg.MaxOpenConns > 0 && cfg.MaxIdleConns > cfg.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "database.max_idle_conns",
			Message: "cannot exceed max_open_conns",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "database.busy_timeout", Message: "must be non-negative"})
	}
	if cfg.ConnectTimeout < 0 {
		errs = append(errs, FieldError{Field: "database.connect_timeout", Message: "must be non-negative"})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	if cfg.MaxRows < 1 {
		return []FieldError{{Field: "history.max_rows", Message: "must be at least 1"}}
	}
	return nil
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, FieldError{
			Field:   "security.bcrypt_cost",
			Message: fmt.Sprintf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost),
		})
	}

	errs = append(errs, validateTLS(&cfg.TLS)...)

	auth := &cfg.Authentication
	for i, src := range auth.Sources {
		if src.Type != "header" && src.Type != "query" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("security.authentication.sources[%d].type", i),
				Message: fmt.Sprintf("unknown source type %q (want header or query)", src.Type),
			})
		}
		if src.Name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("security.authentication.sources[%d].name", i),
				Message: "name is required",
			})
		}
	}

	if auth.Enabled {
		enabled := 0
		for i, key := range auth.Keys {
			if key.Key == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("security.authentication.keys[%d].key", i),
					Message: "key is required",
				})
			}
			if key.IsEnabled() {
				enabled++
			}
		}
		if enabled == 0 {
			errs = append(errs, FieldError{
				Field:   "security.authentication.keys",
				Message: "at least one enabled key is required when authentication is enabled",
			})
		}
	}

	return errs
}

func validateTLS(cfg *TLSConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if cfg.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.cert_file",
				Message: "TLS certificate file is required when TLS is enabled",
			})
		}
		if cfg.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.key_file",
				Message: "TLS key file is required when TLS is enabled",
			})
		}
	}
	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{
			Field:   "security.tls.min_version",
			Message: fmt.Sprintf("unsupported version %q (want 1.2 or 1.3)", cfg.MinVersion),
		})
	}
	if cfg.ReloadInterval < 0 {
		errs = append(errs, FieldError{Field: "security.tls.cert_reload_interval", Message: "must be non-negative"})
	}

	if cfg.MTLS.Enabled {
		if cfg.MTLS.ClientCAFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.mtls.client_ca_file",
				Message: "mTLS client CA file is required when mTLS is enabled",
			})
		}
		if !cfg.Enabled {
			errs = append(errs, FieldError{
				Field:   "security.tls.mtls.enabled",
				Message: "mTLS requires TLS to be enabled (security.tls.enabled must be true)",
			})
		}
	}
	switch cfg.MTLS.ClientAuthType {
	case "require", "request", "verify_if_given":
	default:
		errs = append(errs, FieldError{
			Field:   "security.tls.mtls.client_auth_type",
			Message: fmt.Sprintf("unknown type %q (want require, request or verify_if_given)", cfg.MTLS.ClientAuthType),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (want debug, info, warn or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (want json, text or console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "must be non-negative"})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (want always, never or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "is required when tracing is enabled"})
		}
		if cfg.Tracing.Timeout < 0 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.timeout", Message: "must be non-negative"})
		}
	}

	return errs
}

func validateClient(cfg *ClientConfig) []FieldError {
	var errs []FieldError

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "client.base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "client.timeout", Message: "must be non-negative"})
	}

	return errs
}
