package config

import "time"

// Config is the root configuration structure for the Creo Trail backend.
// It contains the HTTP server, database, history, security and telemetry
// sections.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS.
	Server ServerConfig `yaml:"server"`

	// Database selects the SQL driver and decision log layout.
	Database DatabaseConfig `yaml:"database"`

	// History controls the classification history endpoint.
	History HistoryConfig `yaml:"history"`

	// Security contains password hashing and API key authentication settings.
	Security SecurityConfig `yaml:"security"`

	// Telemetry contains configuration for logging, metrics, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Client configures the HTTP client used by the CLI subcommands.
	Client ClientConfig `yaml:"client"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8000", "0.0.0.0:8000").
	// Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds the handler context of every API request.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Authorization", "Content-Type", "X-Request-ID", "X-API-Key"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials are allowed.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// DatabaseConfig selects and tunes the relational store.
type DatabaseConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite" (modernc, pure Go), "sqlite3" (cgo), "pgx", "postgres"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file. Ignored for PostgreSQL drivers.
	// Default: "data/creotrail.db"
	Path string `yaml:"path"`

	// DSN is the PostgreSQL connection string. Required for "pgx" and
	// "postgres".
	DSN string `yaml:"dsn"`

	// Layout selects how classification decisions are stored.
	// "shared" keeps one decisions table keyed by user_id.
	// "per_user" creates dynamic_cmds_user_<id> and static_cmds_user_<id>
	// tables for every user at signup.
	// Default: "shared"
	Layout string `yaml:"layout"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables SQLite write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// ConnectTimeout bounds the retry loop that waits for the database to
	// answer a ping at startup.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// HistoryConfig controls history queries and exports.
type HistoryConfig struct {
	// MaxRows caps the number of rows a history query returns.
	// Default: 2000
	MaxRows int `yaml:"max_rows"`

	// CSVHeader includes a header row in CSV exports.
	// Default: true
	CSVHeader bool `yaml:"csv_header"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	// BcryptCost is the bcrypt work factor for stored passwords.
	// Default: 10
	BcryptCost int `yaml:"bcrypt_cost"`

	// Authentication configures API key authentication for the HTTP API.
	Authentication AuthenticationConfig `yaml:"authentication"`

	// TLS serves the API over HTTPS when enabled.
	TLS TLSConfig `yaml:"tls"`

	// SecretsDir is a directory of secret files consulted, after
	// CREOTRAIL_SECRET_* variables, when resolving ${secret:name}
	// references in database.dsn, client.api_key and API keys.
	// Default: "" (environment only)
	SecretsDir string `yaml:"secrets_dir"`
}

// TLSConfig contains TLS configuration for the API server.
type TLSConfig struct {
	// Enabled controls whether the server listens with TLS.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM certificate. Required when Enabled.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM private key. Required when Enabled.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// CipherSuites lists enabled TLS 1.2 cipher suites by name.
	// If empty, Go's default secure cipher suites are used.
	CipherSuites []string `yaml:"cipher_suites"`

	// ReloadInterval is how often certificate files are checked for changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"cert_reload_interval"`

	// MTLS contains mutual TLS (client certificate) configuration.
	MTLS MTLSConfig `yaml:"mtls"`
}

// MTLSConfig contains mutual TLS configuration.
type MTLSConfig struct {
	// Enabled controls whether client certificates are verified.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ClientCAFile is the CA bundle used to verify client certificates.
	// Required when Enabled is true.
	ClientCAFile string `yaml:"client_ca_file"`

	// ClientAuthType specifies how to handle client certificates.
	// Options: "require", "request", "verify_if_given"
	// Default: "require"
	ClientAuthType string `yaml:"client_auth_type"`
}

// AuthenticationConfig contains API key authentication configuration.
type AuthenticationConfig struct {
	// Enabled controls whether API key authentication is enforced.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources defines where API keys are read from.
	Sources []APIKeySource `yaml:"sources"`

	// Keys is the list of accepted API keys.
	Keys []APIKeyConfig `yaml:"keys"`

	// PublicPaths are served without a key.
	// Default: ["/", "/health", "/ready", "/metrics"]
	PublicPaths []string `yaml:"public_paths"`
}

// APIKeySource defines where to extract API keys from in HTTP requests.
type APIKeySource struct {
	// Type is the source type.
	// Options: "header", "query"
	Type string `yaml:"type"`

	// Name is the header name or query parameter name.
	Name string `yaml:"name"`

	// Scheme is the authentication scheme for header-based extraction,
	// e.g. "Bearer".
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig contains configuration for a single API key.
type APIKeyConfig struct {
	// Key is the API key value.
	Key string `yaml:"key"`

	// Name identifies the key holder in logs.
	Name string `yaml:"name"`

	// Enabled controls whether this key is accepted.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks emails and drops secrets from log attributes.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "creotrail"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig contains distributed tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of root traces sampled by the "ratio" sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP collector address (host:port).
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "creotrail"
	ServiceName string `yaml:"service_name"`

	// Insecure disables transport security towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// ClientConfig configures the API client used by CLI commands.
type ClientConfig struct {
	// BaseURL is the backend address.
	// Default: "http://127.0.0.1:8000"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every client request.
	// Default: 6s
	Timeout time.Duration `yaml:"timeout"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key"`

	// CAFile is a PEM bundle trusted for https base URLs, for servers
	// using a private CA.
	CAFile string `yaml:"ca_file"`
}

// IsEnabled reports whether the key is accepted.
func (k *APIKeyConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}
