/*
Package limiter provides per-IP rate limiting for connection attempts.

It uses the token bucket algorithm (rate.Limiter) to bound how often a single
client IP may open new connections, and runs a cleanup goroutine that removes
idle limiters so the map does not grow without bound.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// IPRateLimiter tracks one token bucket per client IP address.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu *sync.RWMutex

	// limits maps client IP addresses to their *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the sustained rate, in events per second.
	r rate.Limit

	// b is the burst size (token bucket capacity).
	b int
}

// NewIPRateLimiter creates an IPRateLimiter with rate r and burst b and starts
// the background cleanup goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		mu:     &sync.RWMutex{},
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter returns the limiter for the given IP, creating it on first use.
// Double-checked locking keeps creation concurrent-safe without serializing reads.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanUpVisitors periodically removes limiters whose token bucket has refilled
// completely, meaning the IP has been idle long enough to forget.
func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		count := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				count++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()
		logx.Info("Rate limiter cleanup finished.", "removed", count, "remaining", remaining)
	}
}

// Middleware returns an HTTP middleware enforcing the per-IP limit.
// Requests over the limit receive a 429 Too Many Requests response.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		limiter := i.GetLimiter(ip)

		if !limiter.Allow() {
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}
