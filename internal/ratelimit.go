package internal

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// limiter is a per-client-IP token bucket. Stale buckets are pruned
// opportunistically so the map does not grow with every source address
// that ever delivered a webhook.
type limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rps       float64
	burst     float64
	ttl       time.Duration
	lastPrune time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimitHandler wraps next with a per-client-IP rate limit.
// A non-positive rps disables limiting entirely.
func NewRateLimitHandler(next http.Handler, rps, burst int64, ttl time.Duration) http.Handler {
	if rps <= 0 {
		return next
	}
	l := &limiter{
		buckets:   make(map[string]*bucket),
		rps:       float64(rps),
		burst:     float64(burst),
		ttl:       ttl,
		lastPrune: time.Now(),
	}
	if l.burst < 1 {
		l.burst = l.rps
		if l.burst < 1 {
			l.burst = 1
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *limiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ttl > 0 && now.Sub(l.lastPrune) > l.ttl {
		for k, b := range l.buckets {
			if now.Sub(b.last) > l.ttl {
				delete(l.buckets, k)
			}
		}
		l.lastPrune = now
	}

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	b.tokens += now.Sub(b.last).Seconds() * l.rps
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
