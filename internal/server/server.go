package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route is one method and path a [Handler] answers.
type Route struct {
	Method string
	Path   string
}

// Pattern returns the route as an [http.ServeMux] pattern, e.g. "GET /callback".
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Handler is an [http.Handler] that knows which routes it serves.
type Handler interface {
	http.Handler     // ServeHTTP handles the HTTP request and writes the response
	Routes() []Route // Routes returns the routes this handler serves
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs each request's method, path, status and latency at debug level.
// Query strings are left out because the callback carries the authorization code.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
		})
	}
}
