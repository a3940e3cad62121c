package middleware

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/openalpha/creator-staking/metrics"
)

// RateLimiter keeps one token bucket per client IP for all requests and a
// stricter one per client IP for state-changing requests.
type RateLimiter struct {
	config *RateLimitConfig

	mu      sync.Mutex
	readers map[string]*visitor
	writers map[string]*visitor

	collector *metrics.Collector

	cleanupTicker *time.Ticker
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	// IP-based limits
	IPRequestsPerSecond float64
	IPBurst             int

	// Limits for POST requests (stake, fund, claim...)
	WritesPerSecond float64
	WriteBurst      int

	// Cleanup
	CleanupInterval time.Duration
	VisitorTTL      time.Duration
}

// DefaultRateLimitConfig returns default configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		IPRequestsPerSecond: 100,
		IPBurst:             200,

		WritesPerSecond: 10,
		WriteBurst:      20,

		CleanupInterval: 5 * time.Minute,
		VisitorTTL:      time.Hour,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimitInfo describes the outcome of a rate limit check
type LimitInfo struct {
	Limit      int
	Remaining  int
	RetryAfter int // seconds
}

// NewRateLimiter creates a new rate limiter. collector may be nil.
func NewRateLimiter(config *RateLimitConfig, collector *metrics.Collector) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		config:        config,
		readers:       make(map[string]*visitor),
		writers:       make(map[string]*visitor),
		collector:     collector,
		cleanupTicker: time.NewTicker(config.CleanupInterval),
		stopCh:        make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
		rl.cleanupTicker.Stop()
	})
}

func (rl *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup removes visitors not seen within VisitorTTL
func (rl *RateLimiter) cleanup(now time.Time) {
	threshold := now.Add(-rl.config.VisitorTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, m := range []map[string]*visitor{rl.readers, rl.writers} {
		for key, v := range m {
			if v.lastSeen.Before(threshold) {
				delete(m, key)
			}
		}
	}
}

func (rl *RateLimiter) getVisitor(m map[string]*visitor, key string, r rate.Limit, burst int, now time.Time) *visitor {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := m[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r, burst)}
		m[key] = v
	}
	v.lastSeen = now
	return v
}

func allow(v *visitor, now time.Time) (bool, *LimitInfo) {
	info := &LimitInfo{Limit: v.limiter.Burst()}
	if v.limiter.AllowN(now, 1) {
		info.Remaining = int(math.Max(0, math.Floor(v.limiter.TokensAt(now))))
		return true, info
	}
	r := v.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	info.RetryAfter = int(math.Ceil(delay.Seconds()))
	if info.RetryAfter < 1 {
		info.RetryAfter = 1
	}
	return false, info
}

// AllowIP checks the general per-IP limit
func (rl *RateLimiter) AllowIP(ip string) (bool, *LimitInfo) {
	now := time.Now()
	v := rl.getVisitor(rl.readers, ip, rate.Limit(rl.config.IPRequestsPerSecond), rl.config.IPBurst, now)
	return allow(v, now)
}

// AllowWrite checks the per-IP limit for state-changing requests
func (rl *RateLimiter) AllowWrite(ip string) (bool, *LimitInfo) {
	now := time.Now()
	v := rl.getVisitor(rl.writers, ip, rate.Limit(rl.config.WritesPerSecond), rl.config.WriteBurst, now)
	return allow(v, now)
}

func (rl *RateLimiter) reject(w http.ResponseWriter, code, message string, info *LimitInfo) {
	if rl.collector != nil {
		rl.collector.RecordRateLimitHit(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", info.RetryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       code,
		"message":     message,
		"retry_after": info.RetryAfter,
	})
}

// RateLimitMiddleware creates an HTTP middleware for rate limiting
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			allowed, info := rl.AllowIP(ip)
			if !allowed {
				rl.reject(w, "rate_limit_exceeded", "Too many requests, please slow down", info)
				return
			}
			remaining := info.Remaining

			if r.Method == http.MethodPost {
				allowed, winfo := rl.AllowWrite(ip)
				if !allowed {
					rl.reject(w, "write_limit_exceeded", "Too many transactions, please slow down", winfo)
					return
				}
				w.Header().Set("X-RateLimit-Write-Remaining", fmt.Sprintf("%d", winfo.Remaining))
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}

// Stats returns rate limiter statistics
type Stats struct {
	Visitors      int `json:"visitors"`
	WriteVisitors int `json:"write_visitors"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() *Stats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return &Stats{
		Visitors:      len(rl.readers),
		WriteVisitors: len(rl.writers),
	}
}
