package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
)

// statusRecorder wraps http.ResponseWriter to capture the response status and size.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
	w.status = code
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n

	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// LoggingMiddleware logs every request at debug level and its response at a
// level chosen by status: 5xx error, 4xx warn, everything else debug.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log.DebugContext(r.Context(), "request", logging.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
		))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := logging.LevelDebug

		switch {
		case rec.status >= http.StatusInternalServerError:
			level = logging.LevelError
		case rec.status >= http.StatusBadRequest:
			level = logging.LevelWarn
		}

		log.Log(r.Context(), level, "response", logging.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		))
	})
}
