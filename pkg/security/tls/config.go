package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultReloadInterval is how often certificate files are checked for
// changes when Options.ReloadInterval is zero.
const DefaultReloadInterval = 5 * time.Minute

// Options describes the server side of a TLS listener.
type Options struct {
	// CertFile and KeyFile are PEM-encoded and re-read when they change.
	CertFile string
	KeyFile  string

	// MinVersion is "1.2" or "1.3". Empty means "1.3".
	MinVersion string

	// CipherSuites restricts TLS 1.2 suites by name. Empty keeps Go's
	// defaults. TLS 1.3 suites are not configurable.
	CipherSuites []string

	// ReloadInterval is the certificate polling period.
	ReloadInterval time.Duration

	// ClientCAFile enables client certificate verification when set.
	ClientCAFile string

	// ClientAuth is "require", "request" or "verify_if_given".
	// Default: "require"
	ClientAuth string

	Logger *slog.Logger
	Clock  clockwork.Clock
}

// NewServerConfig loads the key pair, starts a reloader bound to ctx and
// returns a tls.Config that always serves the latest certificate.
func NewServerConfig(ctx context.Context, opts Options) (*tls.Config, *CertificateReloader, error) {
	if opts.CertFile == "" || opts.KeyFile == "" {
		return nil, nil, fmt.Errorf("cert_file and key_file are required when TLS is enabled")
	}
	version, err := ParseVersion(opts.MinVersion)
	if err != nil {
		return nil, nil, err
	}
	suites, err := parseCipherSuites(opts.CipherSuites)
	if err != nil {
		return nil, nil, err
	}

	interval := opts.ReloadInterval
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	reloader := NewCertificateReloader(opts.CertFile, opts.KeyFile, interval, opts.Logger, opts.Clock)
	if err := reloader.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("load certificate: %w", err)
	}

	// #nosec G402 - MinVersion is validated, TLS 1.0/1.1 are rejected
	cfg := &tls.Config{
		MinVersion:     version,
		CipherSuites:   suites,
		GetCertificate: reloader.GetCertificateFunc(),
	}

	if opts.ClientCAFile != "" {
		pool, err := LoadCertPool(opts.ClientCAFile)
		if err != nil {
			return nil, nil, fmt.Errorf("client CA: %w", err)
		}
		auth, err := parseClientAuth(opts.ClientAuth)
		if err != nil {
			return nil, nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = auth
	}

	return cfg, reloader, nil
}

// NewClientConfig returns a client tls.Config whose roots are the PEM
// bundle in caFile. An empty caFile returns nil so the system roots apply.
func NewClientConfig(caFile string) (*tls.Config, error) {
	if caFile == "" {
		return nil, nil
	}
	pool, err := LoadCertPool(caFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: pool}, nil
}

// LoadCertPool reads a PEM bundle into a new pool.
func LoadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// ParseVersion maps "1.2" and "1.3" to their tls constants.
func ParseVersion(v string) (uint16, error) {
	switch v {
	case "", "1.3":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (use 1.2 or 1.3)", v)
	}
}

func parseClientAuth(s string) (tls.ClientAuthType, error) {
	switch s {
	case "", "require":
		return tls.RequireAndVerifyClientCert, nil
	case "request":
		return tls.RequestClientCert, nil
	case "verify_if_given":
		return tls.VerifyClientCertIfGiven, nil
	default:
		return 0, fmt.Errorf("unknown client auth type %q", s)
	}
}

func parseCipherSuites(names []string) ([]uint16, error) {
	if len(names) == 0 {
		return nil, nil
	}
	suites := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := cipherSuites[name]
		if !ok {
			return nil, fmt.Errorf("unknown or insecure cipher suite %q", name)
		}
		suites = append(suites, id)
	}
	return suites, nil
}

// cipherSuites holds the TLS 1.2 suites that may be enabled by name.
var cipherSuites = map[string]uint16{
	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":   tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":   tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256": tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384": tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305":    tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305":  tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}
