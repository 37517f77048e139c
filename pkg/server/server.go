package server

import (
	"context"
	cryptotls "crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"creotrail/validator/pkg/api"
	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/security/auth"
	"creotrail/validator/pkg/security/tls"
	"creotrail/validator/pkg/server/middleware"
	"creotrail/validator/pkg/store"
	"creotrail/validator/pkg/telemetry/health"
	"creotrail/validator/pkg/telemetry/metrics"
	"creotrail/validator/pkg/telemetry/tracing"
)

// BuildInfo is reported by the /version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Deps are the components the server wires into its handlers.
type Deps struct {
	Store   store.Store
	Metrics *metrics.Collector
	Health  *health.Checker
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Tracer  *tracing.Tracer
	Build   BuildInfo
}

// Server is the HTTP server for the validator API.
type Server struct {
	config       *config.Config
	deps         Deps
	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new server. Nil metrics, health checker, logger and
// clock are replaced with working defaults.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}
	if deps.Health == nil {
		deps.Health = health.New(cfg.Telemetry.Health.CheckTimeout, deps.Clock)
		deps.Health.RegisterCheck("database", health.DatabaseCheck(deps.Store))
	}

	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled, a
// SIGINT/SIGTERM arrives, Stop is called or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.config.Server.ListenAddress, err)
	}

	// The certificate reloader lives as long as Start does.
	tlsCtx, stopTLS := context.WithCancel(ctx)
	defer stopTLS()

	tlsCfg := s.config.Security.TLS
	if tlsCfg.Enabled {
		serverTLS, err := s.configureTLS(tlsCtx)
		if err != nil {
			listener.Close()
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		listener = cryptotls.NewListener(listener, serverTLS)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:        s.setupRoutes(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}
	s.isRunning = true
	s.mu.Unlock()

	logger := s.deps.Logger

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting validator API server",
			"address", listener.Addr().String(),
			"layout", s.config.Database.Layout,
			"auth_enabled", s.config.Security.Authentication.Enabled,
			"tls_enabled", tlsCfg.Enabled,
			"mtls_enabled", tlsCfg.Enabled && tlsCfg.MTLS.Enabled,
		)

		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// configureTLS builds the listener TLS settings from security.tls.
func (s *Server) configureTLS(ctx context.Context) (*cryptotls.Config, error) {
	c := s.config.Security.TLS
	opts := tls.Options{
		CertFile:       c.CertFile,
		KeyFile:        c.KeyFile,
		MinVersion:     c.MinVersion,
		CipherSuites:   c.CipherSuites,
		ReloadInterval: c.ReloadInterval,
		Logger:         s.deps.Logger,
		Clock:          s.deps.Clock,
	}
	if c.MTLS.Enabled {
		opts.ClientCAFile = c.MTLS.ClientCAFile
		opts.ClientAuth = c.MTLS.ClientAuthType
	}
	cfg, _, err := tls.NewServerConfig(ctx, opts)
	return cfg, err
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.deps.Logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.deps.Logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.deps.Logger.Info("validator API server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		types.NewNotFoundError("No route for "+r.Method+" "+r.URL.Path, "", "").Write(w)
	})

	api.NewHandler(s.deps.Store, api.Options{
		Layout:    s.config.Database.Layout,
		CSVHeader: s.config.History.CSVHeader,
		Metrics:   s.deps.Metrics,
		Logger:    s.deps.Logger,
	}).Register(router)

	healthCfg := s.config.Telemetry.Health
	router.Handle(healthCfg.LivenessPath, s.deps.Health.LivenessHandler()).Methods(http.MethodGet, http.MethodHead)
	router.Handle(healthCfg.ReadinessPath, s.deps.Health.ReadinessHandler()).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/version", health.VersionHandler(s.deps.Build.Version, s.deps.Build.Commit, s.deps.Build.BuildTime)).Methods(http.MethodGet)

	if metricsCfg := s.config.Telemetry.Metrics; metricsCfg.Enabled {
		router.Handle(metricsCfg.Path, s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = router

	// Timeout middleware
	handler = middleware.TimeoutMiddleware(s.config.Server.RequestTimeout)(handler)

	// API key authentication
	if authCfg := s.config.Security.Authentication; authCfg.Enabled {
		mw := auth.NewAPIKeyMiddleware(
			auth.NewValidatorFromConfig(authCfg.Keys),
			auth.SourcesFromConfig(authCfg.Sources),
			authCfg.PublicPaths,
			s.deps.Logger,
		)
		handler = mw.Handle(handler)
	}

	// CORS middleware
	handler = middleware.CORSMiddleware(middleware.CORSConfigFrom(s.config.Server.CORS))(handler)

	// Request ID middleware
	handler = middleware.RequestIDMiddleware(handler)

	// Tracing middleware
	if s.deps.Tracer != nil && s.deps.Tracer.Enabled() {
		handler = middleware.TracingMiddleware(s.deps.Tracer, router)(handler)
	}

	// Metrics middleware
	if s.config.Telemetry.Metrics.Enabled {
		handler = middleware.MetricsMiddleware(s.deps.Metrics, router, s.deps.Clock)(handler)
	}

	// Logging middleware
	handler = middleware.LoggingMiddleware(s.deps.Logger, s.deps.Clock)(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(s.deps.Logger)(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listen address once Start has been called.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Health reports whether the server is running and its readiness checks
// pass.
func (s *Server) Health(ctx context.Context) error {
	if !s.IsRunning() {
		return fmt.Errorf("server is not running")
	}

	status := s.deps.Health.CheckReadiness(ctx)
	if status.Status != "ready" {
		for name, result := range status.Checks {
			if result.Status != "ok" {
				return fmt.Errorf("check %s: %s", name, result.Message)
			}
		}
		return fmt.Errorf("server is %s", status.Status)
	}
	return nil
}
