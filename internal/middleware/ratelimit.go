package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coah80/mediaconv/internal/util"
)

const maxRateLimitEntries = 100000

// RateLimiter is a sliding-window request counter keyed by client IP.
type RateLimiter struct {
	mu     sync.Mutex
	store  map[string][]time.Time
	window time.Duration
	max    int
	now    func() time.Time
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		store:  make(map[string][]time.Time),
		window: window,
		max:    max,
		now:    time.Now,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := util.GetClientIP(r)
		allowed, remaining, resetIn := rl.check(ip)

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.max))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetIn))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "Too many requests. Please slow down.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) check(ip string) (allowed bool, remaining int, resetIn int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	filtered := rl.prune(rl.store[ip], now)

	if len(filtered) >= rl.max {
		resetSec := int(filtered[0].Add(rl.window).Sub(now).Seconds()) + 1
		rl.store[ip] = filtered
		return false, 0, resetSec
	}

	if _, known := rl.store[ip]; !known && len(rl.store) >= maxRateLimitEntries {
		return false, 0, int(rl.window.Seconds())
	}

	filtered = append(filtered, now)
	rl.store[ip] = filtered
	return true, rl.max - len(filtered), 0
}

func (rl *RateLimiter) prune(requests []time.Time, now time.Time) []time.Time {
	windowStart := now.Add(-rl.window)
	filtered := requests[:0]
	for _, t := range requests {
		if t.After(windowStart) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// StartCleanup drops idle clients once per window until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, requests := range rl.store {
		filtered := rl.prune(requests, now)
		if len(filtered) == 0 {
			delete(rl.store, ip)
		} else {
			rl.store[ip] = filtered
		}
	}
}
