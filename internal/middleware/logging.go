// Package middleware wraps the route mux. The teacher's middleware package
// held cookie-based auth; this module has no login surface (§ non-goals),
// so it is adapted into request logging instead.
package middleware

import (
	"net/http"
	"time"

	"webserver/internal/logger"
)

// Logging logs method, path, status, and duration for every request.
func Logging(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
