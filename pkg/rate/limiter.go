package rate

import (
	"sync"

	"golang.org/x/time/rate"
)

const sweepThreshold = 4096

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) (bool, error)
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	sync.Mutex
	limiters  map[string]*rate.Limiter
	nextSweep int
}

// NewLocalRateLimiter returns an in memory limiter allowing limit operations
// per second per key, with bursts of up to limit operations.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:     limit,
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
		nextSweep: sweepThreshold,
	}
}

// Allow implements limiter.Allow.
func (l *localRateLimiter) Allow(key string) (bool, error) {
	l.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.nextSweep {
			l.sweep()
		}

		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.Unlock()

	return limiter.Allow(), nil
}

// sweep drops limiters that have fully refilled, since they're
// indistinguishable from new ones. Must be called with the lock held.
func (l *localRateLimiter) sweep() {
	for key, limiter := range l.limiters {
		if limiter.Tokens() >= float64(l.burst) {
			delete(l.limiters, key)
		}
	}
	l.nextSweep = max(sweepThreshold, 2*len(l.limiters))
}
