// Package server runs the validator HTTP API.
//
// It builds the gorilla/mux router from pkg/api, adds the health, version
// and Prometheus endpoints, wraps everything in the middleware chain and
// manages the listener lifecycle including graceful shutdown on SIGINT and
// SIGTERM. With security.tls enabled the listener serves HTTPS and picks up
// renewed certificates without a restart.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    return err
//	}
//	st, err := store.Open(ctx, storeConfig)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	srv := server.NewServer(cfg, server.Deps{Store: st, Logger: logger})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// # Middleware Chain
//
// Requests pass through, outermost first: recovery, logging, metrics,
// tracing (when Deps.Tracer is enabled), request ID, CORS, API key
// authentication (when enabled) and the request timeout. The metrics middleware labels requests with the matched route
// template so /history/1 and /history/2 share one series.
package server
