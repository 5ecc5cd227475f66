package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-Id"

// corsHeaders attaches the cross-origin policy to every response, success
// and rejection alike.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		next.ServeHTTP(w, r)
	})
}

// requestID assigns a correlation ID to each request, honoring one supplied
// by the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r)
	})
}

// accessLog emits one structured log line per request.
func (s *service) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": ww.Header().Get(requestIDHeader),
		}).Info("Request handled")
	})
}

// recoverer converts a handler panic into the internal-error envelope. The
// panic value is logged, never written to the client.
func (s *service) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.WithFields(logrus.Fields{
					"panic": rec,
					"path":  r.URL.Path,
				}).Error("Recovered from handler panic")

				writeEnvelope(s.log, w, Envelope{
					Status:  http.StatusInternalServerError,
					Code:    codeInternalError,
					Message: genericInternalMessage,
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
