package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "CREOTRAIL_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default, remaining zero values are
// defaulted and the result is validated. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// CREOTRAIL_SECTION_FIELD (e.g., CREOTRAIL_SERVER_LISTEN_ADDRESS).
//
// The loading sequence is:
// 1. Load YAML from file (a missing file falls back to defaults)
// 2. Load a .env file from the working directory, if present
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	if _, err := os.Stat(path); path != "" && errors.Is(err, fs.ErrNotExist) {
		path = ""
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// .env values never replace variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)

	// Database overrides
	envString("DATABASE_DRIVER", &cfg.Database.Driver)
	envString("DATABASE_PATH", &cfg.Database.Path)
	envString("DATABASE_DSN", &cfg.Database.DSN)
	envString("DATABASE_LAYOUT", &cfg.Database.Layout)
	envInt("DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	envBool("DATABASE_WAL_MODE", &cfg.Database.WALMode)
	envDuration("DATABASE_BUSY_TIMEOUT", &cfg.Database.BusyTimeout)
	envDuration("DATABASE_CONNECT_TIMEOUT", &cfg.Database.ConnectTimeout)

	// History overrides
	envInt("HISTORY_MAX_ROWS", &cfg.History.MaxRows)

	// Security overrides
	envInt("SECURITY_BCRYPT_COST", &cfg.Security.BcryptCost)
	envBool("SECURITY_AUTHENTICATION_ENABLED", &cfg.Security.Authentication.Enabled)
	envString("SECURITY_SECRETS_DIR", &cfg.Security.SecretsDir)
	envBool("SECURITY_TLS_ENABLED", &cfg.Security.TLS.Enabled)
	envString("SECURITY_TLS_CERT_FILE", &cfg.Security.TLS.CertFile)
	envString("SECURITY_TLS_KEY_FILE", &cfg.Security.TLS.KeyFile)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Client overrides
	envString("CLIENT_BASE_URL", &cfg.Client.BaseURL)
	envDuration("CLIENT_TIMEOUT", &cfg.Client.Timeout)
	envString("CLIENT_API_KEY", &cfg.Client.APIKey)
	envString("CLIENT_CA_FILE", &cfg.Client.CAFile)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
