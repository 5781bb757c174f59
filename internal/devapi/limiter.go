/*
Package devapi is an in-memory stand-in for the upstream social API.

This file provides the per-IP token-bucket limiter applied to the fixture's
write endpoints, with a background sweep that drops limiters whose buckets
have refilled completely.
*/
package devapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipRateLimiter tracks one token bucket per client IP.
type ipRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	l := &ipRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.sweep()

	return l
}

func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limits[ip]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limits[ip] = limiter
	}
	return limiter
}

// sweep periodically removes limiters whose buckets are full again; an idle
// IP costs nothing.
func (l *ipRateLimiter) sweep() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for ip, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, ip)
			}
		}
		l.mu.Unlock()
	}
}

// wrap applies the limiter to one handler; over-limit requests get 429.
func (l *ipRateLimiter) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !l.limiterFor(ip).Allow() {
			respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		next(w, r)
	}
}
