package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxLocalKeys = 10000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a token bucket per key held in memory. A full bucket holds
// Limit tokens and refills over Window.
type LocalLimiter struct {
	cfg   Config
	every rate.Limit
	now   func() time.Time

	mu   sync.Mutex
	keys map[string]*localEntry
}

var _ Limiter = (*LocalLimiter)(nil)

func NewLocalLimiter(cfg Config) (*LocalLimiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &LocalLimiter{
		cfg:   cfg,
		every: rate.Every(cfg.Window / time.Duration(cfg.Limit)),
		now:   time.Now,
		keys:  make(map[string]*localEntry),
	}, nil
}

func (l *LocalLimiter) Allow(key string) bool {
	if l == nil {
		return false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.keys[key]
	if !ok {
		if len(l.keys) >= maxLocalKeys {
			l.evictIdle(now)
		}
		entry = &localEntry{limiter: rate.NewLimiter(l.every, l.cfg.Limit)}
		l.keys[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops keys whose bucket has had a full window to refill.
func (l *LocalLimiter) evictIdle(now time.Time) {
	for k, e := range l.keys {
		if now.Sub(e.lastSeen) >= l.cfg.Window {
			delete(l.keys, k)
		}
	}
}
