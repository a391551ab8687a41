// Package ratelimit throttles abuse-prone shop endpoints such as sign-up,
// likes and feedback submission.
package ratelimit

import (
	"errors"
	"time"
)

// Limiter decides whether one more request for key fits the quota.
type Limiter interface {
	Allow(key string) bool
}

// Config describes a quota of Limit requests per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

var errInvalidQuota = errors.New("rate limiter requires positive limit and window")

func (c Config) validate() error {
	if c.Limit <= 0 || c.Window <= 0 {
		return errInvalidQuota
	}
	return nil
}

// New returns a Redis-backed limiter when redisAddr is set, otherwise an
// in-process one. The in-process limiter is only correct for a single replica.
func New(redisAddr, redisPassword, prefix string, cfg Config) (Limiter, error) {
	if redisAddr == "" {
		return NewLocalLimiter(cfg)
	}
	return NewRedisFixedWindowLimiter(redisAddr, redisPassword, prefix, cfg.Limit, cfg.Window)
}
