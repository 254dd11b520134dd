// Package middleware holds http.Handler wrappers shared by all routes.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	StatusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.StatusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// Logging logs method, path, status and duration of every request.
// Server errors are logged at error level, everything else at debug.
func Logging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, StatusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := RemoveNewlines(r.URL.Path)
		attrs := []any{
			slog.Int("code", rec.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", path),
			slog.Duration("duration", time.Since(start)),
			slog.String("user_agent", RemoveNewlines(r.UserAgent())),
		}
		if rec.StatusCode >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "failing "+path, attrs...)
		} else {
			log.DebugContext(r.Context(), "request served", attrs...)
		}
	})
}

// RemoveNewlines strips CR and LF from user controlled input before logging.
func RemoveNewlines(data string) string {
	data = strings.ReplaceAll(data, "\r", "")
	return strings.ReplaceAll(data, "\n", "")
}
