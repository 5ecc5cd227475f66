package gateway

import (
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hgm-king/ostrich-api/pkg/config"
	"github.com/hgm-king/ostrich-api/pkg/observability"
)

// rateLimiter provides per-client-IP rate limiting for the auth routes.
type rateLimiter struct {
	log      logrus.FieldLogger
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// newRateLimiter creates a rate limiter from config.
func newRateLimiter(log logrus.FieldLogger, cfg config.RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		log:   log.WithField("component", "rate_limiter"),
		rate:  rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst: cfg.BurstSize,
	}
}

// getLimiter gets or creates a rate limiter for the given key.
func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters.Store(key, limiter)

	return limiter
}

// allow checks if a request is allowed for the given key.
func (rl *rateLimiter) allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Handler returns the rate limiting middleware handler.
func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		if !rl.allow(key) {
			rl.log.WithFields(logrus.Fields{
				"key":  key,
				"path": r.URL.Path,
			}).Warn("Rate limit exceeded")

			w.Header().Set("Retry-After", "60")
			writeEnvelope(rl.log, w, Envelope{
				Status:  http.StatusTooManyRequests,
				Code:    codeLimitExceeded,
				Message: "too many requests, try again later",
			})

			op := operationForPath(r.URL.Path)
			observability.RequestsTotal.WithLabelValues(string(op), strconv.Itoa(http.StatusTooManyRequests)).Inc()

			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller address, falling back to the raw RemoteAddr
// when it carries no port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
