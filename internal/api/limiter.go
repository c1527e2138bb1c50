package api

import (
	"sync"

	"postavka/internal/config"

	"golang.org/x/time/rate"
)

// rateLimiter throttles assignment API clients individually. Keys are API
// keys when auth is on and remote hosts otherwise, so a busy admin panel
// cannot starve vendor-facing calls behind the same endpoint.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newRateLimiter(cfg *config.APIConfig) *rateLimiter {
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(cfg.RateLimit.RPS),
		burst:    burst,
	}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim
}
