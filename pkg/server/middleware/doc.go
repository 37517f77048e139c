// Package middleware provides the HTTP middleware chain wrapped around the
// API router.
//
// The server composes the chain from the inside out, so the outermost
// middleware is listed first here:
//
//   - RecoveryMiddleware turns panics into a 500 JSON error
//   - LoggingMiddleware logs one line per request with status and latency
//   - MetricsMiddleware records Prometheus request metrics per route template
//   - TracingMiddleware (optional) opens a server span and sets X-Trace-ID
//   - RequestIDMiddleware assigns X-Request-ID and stores it in the context
//   - CORSMiddleware answers preflight requests for the browser dashboard
//   - auth.APIKeyMiddleware (optional, in pkg/security/auth)
//   - TimeoutMiddleware bounds the handler context
package middleware
