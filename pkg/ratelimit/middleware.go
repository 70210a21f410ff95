package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	apperrors "github.com/tendant/simple-register/pkg/errors"
)

// Config holds rate limiting configuration
type Config struct {
	// Global rate limiting
	GlobalEnabled    bool
	GlobalCapacity   int     // Max burst
	GlobalRefillRate float64 // Requests per second

	// Per-IP rate limiting
	PerIPEnabled    bool
	PerIPCapacity   int
	PerIPRefillRate float64

	// Per view session rate limiting, keyed by SessionKey
	PerSessionEnabled    bool
	PerSessionCapacity   int
	PerSessionRefillRate float64

	// Bucket TTL (how long to keep inactive buckets in memory)
	BucketTTL time.Duration

	// RetryAfter is sent in the Retry-After header of rejected requests
	RetryAfter time.Duration

	// Headers to include in response
	IncludeHeaders bool
}

// DefaultConfig limits submissions, not page views: registration is a
// handful of requests per visitor.
func DefaultConfig() *Config {
	return &Config{
		// Global: 600 submissions per minute
		GlobalEnabled:    true,
		GlobalCapacity:   600,
		GlobalRefillRate: 600.0 / 60.0,

		// Per-IP: 20 submissions per minute
		PerIPEnabled:    true,
		PerIPCapacity:   20,
		PerIPRefillRate: 20.0 / 60.0,

		// Per view session: 5 submissions per minute
		PerSessionEnabled:    true,
		PerSessionCapacity:   5,
		PerSessionRefillRate: 5.0 / 60.0,

		BucketTTL:      1 * time.Hour,
		RetryAfter:     60 * time.Second,
		IncludeHeaders: true,
	}
}

// KeyFunc extracts a rate limiting key from the request. An empty key skips the limit.
type KeyFunc func(r *http.Request) string

// LimitedFunc writes the response for a rejected request.
type LimitedFunc func(w http.ResponseWriter, r *http.Request, err *apperrors.Error)

// Middleware holds the rate limiting middleware state
type Middleware struct {
	config         *Config
	globalLimiter  *RateLimiter
	ipLimiter      *RateLimiter
	sessionLimiter *RateLimiter
	sessionKey     KeyFunc
	onLimited      LimitedFunc
}

// Option configures a Middleware
type Option func(*Middleware)

// WithSessionKey sets how the view session of a request is found.
func WithSessionKey(fn KeyFunc) Option {
	return func(m *Middleware) {
		m.sessionKey = fn
	}
}

// WithLimitedHandler replaces the default JSON 429 response.
func WithLimitedHandler(fn LimitedFunc) Option {
	return func(m *Middleware) {
		m.onLimited = fn
	}
}

// NewMiddleware creates a new rate limiting middleware
func NewMiddleware(config *Config, opts ...Option) *Middleware {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Middleware{
		config:    config,
		onLimited: writeLimitedJSON,
	}
	for _, opt := range opts {
		opt(m)
	}

	if config.GlobalEnabled {
		m.globalLimiter = NewRateLimiter(config.GlobalCapacity, config.GlobalRefillRate, config.BucketTTL)
	}
	if config.PerIPEnabled {
		m.ipLimiter = NewRateLimiter(config.PerIPCapacity, config.PerIPRefillRate, config.BucketTTL)
	}
	if config.PerSessionEnabled && m.sessionKey != nil {
		m.sessionLimiter = NewRateLimiter(config.PerSessionCapacity, config.PerSessionRefillRate, config.BucketTTL)
	}

	return m
}

// Handler returns the rate limiting middleware handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.globalLimiter != nil && !m.globalLimiter.Allow("global") {
			m.rateLimitExceeded(w, r, "global")
			return
		}

		ip := ClientIP(r)
		if m.ipLimiter != nil && ip != "" && !m.ipLimiter.Allow(ip) {
			m.rateLimitExceeded(w, r, "ip")
			return
		}

		if m.sessionLimiter != nil {
			if key := m.sessionKey(r); key != "" && !m.sessionLimiter.Allow(key) {
				m.rateLimitExceeded(w, r, "session")
				return
			}
		}

		if m.config.IncludeHeaders {
			if m.ipLimiter != nil {
				w.Header().Set("X-RateLimit-Limit-IP", strconv.Itoa(m.config.PerIPCapacity))
			}
			if m.sessionLimiter != nil {
				w.Header().Set("X-RateLimit-Limit-Session", strconv.Itoa(m.config.PerSessionCapacity))
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) rateLimitExceeded(w http.ResponseWriter, r *http.Request, limitType string) {
	slog.Warn("Rate limit exceeded",
		"type", limitType,
		"ip", ClientIP(r),
		"path", r.URL.Path,
		"method", r.Method,
	)

	retryAfter := strconv.Itoa(int(m.config.RetryAfter.Seconds()))
	w.Header().Set("Retry-After", retryAfter)
	m.onLimited(w, r, apperrors.RateLimitExceeded(retryAfter).WithDetail("type", limitType))
}

func writeLimitedJSON(w http.ResponseWriter, r *http.Request, err *apperrors.Error) {
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, map[string]interface{}{
		"error":   "rate_limit_exceeded",
		"message": "Too many requests. Please try again later.",
		"type":    err.Details["type"],
	})
}

// ClientIP extracts the client IP address from the request
func ClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GetStats returns statistics about all rate limiters
func (m *Middleware) GetStats() map[string]Stats {
	stats := make(map[string]Stats)
	if m.globalLimiter != nil {
		stats["global"] = m.globalLimiter.GetStats()
	}
	if m.ipLimiter != nil {
		stats["ip"] = m.ipLimiter.GetStats()
	}
	if m.sessionLimiter != nil {
		stats["session"] = m.sessionLimiter.GetStats()
	}
	return stats
}

// Close stops the cleanup goroutines of all limiters.
func (m *Middleware) Close() {
	for _, l := range []*RateLimiter{m.globalLimiter, m.ipLimiter, m.sessionLimiter} {
		if l != nil {
			l.Close()
		}
	}
}
