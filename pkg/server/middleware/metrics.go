package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
)

// UnmatchedRoute is the route label for requests no route matched.
const UnmatchedRoute = "unmatched"

// RequestRecorder receives one observation per completed request.
type RequestRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// MetricsMiddleware records request count and latency labelled by the mux
// path template ("/history/{user_id}") rather than the raw path, which keeps
// label cardinality bounded by the number of routes.
func MetricsMiddleware(recorder RequestRecorder, router *mux.Router, clock clockwork.Clock) func(http.Handler) http.Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := clock.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			recorder.RecordHTTPRequest(routeTemplate(router, r), r.Method, rw.statusCode, clock.Since(start))
		})
	}
}

func routeTemplate(router *mux.Router, r *http.Request) string {
	if router == nil {
		return UnmatchedRoute
	}
	var match mux.RouteMatch
	if !router.Match(r, &match) || match.Route == nil {
		return UnmatchedRoute
	}
	tpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return UnmatchedRoute
	}
	return tpl
}
