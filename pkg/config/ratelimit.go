package config

import (
	"time"

	"github.com/tendant/simple-register/pkg/ratelimit"
)

// RateLimitConfig contains rate limiting settings for the submit routes.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" env-default:"true"`

	GlobalCapacity   int     `env:"RATE_LIMIT_GLOBAL_CAPACITY" env-default:"600"`
	GlobalRefillRate float64 `env:"RATE_LIMIT_GLOBAL_REFILL_RATE" env-default:"10"` // tokens per second

	PerIPCapacity   int     `env:"RATE_LIMIT_PER_IP_CAPACITY" env-default:"20"`
	PerIPRefillRate float64 `env:"RATE_LIMIT_PER_IP_REFILL_RATE" env-default:"0.333"`

	PerSessionCapacity   int     `env:"RATE_LIMIT_PER_SESSION_CAPACITY" env-default:"5"`
	PerSessionRefillRate float64 `env:"RATE_LIMIT_PER_SESSION_REFILL_RATE" env-default:"0.083"`

	BucketTTL      time.Duration `env:"RATE_LIMIT_BUCKET_TTL" env-default:"1h"`
	RetryAfter     time.Duration `env:"RATE_LIMIT_RETRY_AFTER" env-default:"60s"`
	IncludeHeaders bool          `env:"RATE_LIMIT_INCLUDE_HEADERS" env-default:"true"`
}

// ToMiddlewareConfig converts the settings to a ratelimit.Config.
func (c RateLimitConfig) ToMiddlewareConfig() *ratelimit.Config {
	return &ratelimit.Config{
		GlobalEnabled:        c.Enabled,
		GlobalCapacity:       c.GlobalCapacity,
		GlobalRefillRate:     c.GlobalRefillRate,
		PerIPEnabled:         c.Enabled,
		PerIPCapacity:        c.PerIPCapacity,
		PerIPRefillRate:      c.PerIPRefillRate,
		PerSessionEnabled:    c.Enabled,
		PerSessionCapacity:   c.PerSessionCapacity,
		PerSessionRefillRate: c.PerSessionRefillRate,
		BucketTTL:            c.BucketTTL,
		RetryAfter:           c.RetryAfter,
		IncludeHeaders:       c.IncludeHeaders,
	}
}
