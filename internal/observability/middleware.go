// Package observability provides HTTP middleware and the metrics server.
package observability

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/earlysvahn/whisper-transcribe-api/internal/observability/metrics"
)

// RequestLogger returns middleware that records request metrics and writes
// one structured log line per served request.
func RequestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			m.RecordRequest(r.Method, r.URL.Path, ww.Status(), duration.Seconds())

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Str("requestId", chimw.GetReqID(r.Context())).
				Dur("duration", duration).
				Msg("HTTP request completed")
		})
	}
}
