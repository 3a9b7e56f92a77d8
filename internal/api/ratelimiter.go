package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the bucket table; when it fills up the table is
// reset and every client starts again with a full bucket.
const maxTrackedClients = 1024

// rateLimiter decides whether a request from client may proceed.
type rateLimiter interface {
	Allow(client string) bool
}

// clientRateLimiter keeps one token bucket per client address, so a single
// chatty local tool cannot starve the others.
type clientRateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func newClientRateLimiter(ratePerSecond float64, burst int) *clientRateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &clientRateLimiter{
		limit:   rate.Limit(ratePerSecond),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *clientRateLimiter) Allow(client string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.buckets[client]
	if !ok {
		if len(l.buckets) >= maxTrackedClients {
			clear(l.buckets)
		}
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[client] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// clientKey identifies the caller by remote host, ignoring the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "external API rate limit exceeded")
	})
}
