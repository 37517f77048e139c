package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/config"
)

// APIKeySource defines where to extract API keys from
type APIKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// SourcesFromConfig converts configured key sources.
func SourcesFromConfig(cfg []config.APIKeySource) []APIKeySource {
	sources := make([]APIKeySource, 0, len(cfg))
	for _, s := range cfg {
		sources = append(sources, APIKeySource{Type: s.Type, Name: s.Name, Scheme: s.Scheme})
	}
	return sources
}

var errNoAPIKey = errors.New("no API key found")

// APIKeyMiddleware is HTTP middleware for API key authentication
type APIKeyMiddleware struct {
	validator   APIKeyStore
	sources     []APIKeySource
	publicPaths map[string]struct{}
	logger      *slog.Logger
}

// NewAPIKeyMiddleware creates a new API key authentication middleware.
// Requests whose path is listed in publicPaths pass through unchecked.
func NewAPIKeyMiddleware(validator APIKeyStore, sources []APIKeySource, publicPaths []string, logger *slog.Logger) *APIKeyMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &APIKeyMiddleware{
		validator:   validator,
		sources:     sources,
		publicPaths: public,
		logger:      logger,
	}
}

// Handle wraps an HTTP handler with API key authentication
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.publicPaths[r.URL.Path]; ok || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		apiKey, err := m.extractAPIKey(r)
		if err != nil {
			m.logger.WarnContext(r.Context(), "missing API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			types.NewAuthenticationError("Missing or invalid API key").Write(w)
			return
		}

		keyInfo, err := m.validator.Validate(apiKey)
		if err != nil {
			m.logger.WarnContext(r.Context(), "invalid API key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			types.NewAuthenticationError("Invalid API key").Write(w)
			return
		}

		m.logger.DebugContext(r.Context(), "API key authenticated",
			"key_name", keyInfo.Name,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), apiKeyInfoKey, keyInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAPIKey extracts the API key from the request using configured sources
func (m *APIKeyMiddleware) extractAPIKey(r *http.Request) (string, error) {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme == "" {
				return value, nil
			}
			if rest, ok := strings.CutPrefix(value, source.Scheme+" "); ok && rest != "" {
				return rest, nil
			}

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value, nil
			}
		}
	}

	return "", errNoAPIKey
}

// Context key for API key info
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const apiKeyInfoKey contextKey = "api_key_info"

// GetAPIKeyInfo retrieves API key info from request context
func GetAPIKeyInfo(ctx context.Context) (*APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyInfoKey).(*APIKeyInfo)
	return info, ok
}
