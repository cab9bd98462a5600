package ui

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"autodash/internal"
)

// requestLogger logs one line per request through the app logger
func requestLogger(logger *internal.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			msg := "%s %s -> %d (%s)"
			args := []interface{}{r.Method, r.URL.Path, status, time.Since(start).Round(time.Millisecond)}
			if status >= http.StatusInternalServerError {
				logger.Error(msg, args...)
				return
			}
			logger.Debug(msg, args...)
		})
	}
}
