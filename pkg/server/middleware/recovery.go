package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"creotrail/validator/pkg/api/types"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// response in the API error format. The panic is logged with its stack trace;
// clients never see internal details.
//
// Example usage:
//
//	handler = RecoveryMiddleware(logger)(handler)
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", w.Header().Get(RequestIDHeader),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				types.NewServerError("An internal error occurred. Please try again later.").Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
