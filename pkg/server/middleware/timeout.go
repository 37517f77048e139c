package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds the request context with context.WithTimeout.
// Handlers run on the calling goroutine and observe the deadline through
// their context; database calls made with it are cancelled when it expires
// and the handler reports 504.
//
// A non-positive timeout disables the middleware.
//
// Example usage:
//
//	handler = TimeoutMiddleware(10 * time.Second)(handler)
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
