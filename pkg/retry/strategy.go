package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/code-payments/nft-staking/pkg/retry/backoff"
)

// Strategy is a function that determines whether or not an action should be
// retried. Strategies are allowed to delay or cause other side effects, and
// must return false once ctx is done.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// Limit returns a strategy that limits the total number of attempts.
// maxAttempts should be >= 1, since the action is evaluated first.
func Limit(maxAttempts uint) Strategy {
	return func(_ context.Context, attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors returns a strategy that only retries errors matching one of
// retriableErrors, as determined by errors.Is.
func RetriableErrors(retriableErrors ...error) Strategy {
	return If(func(err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	})
}

// If returns a strategy that only retries errors satisfying the predicate.
// Use it for error classes that can't be matched with errors.Is, such as
// driver errors carrying a code.
func If(retriable func(err error) bool) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		return retriable(err)
	}
}

// Backoff returns a strategy that delays the next attempt by the capped
// backoff delay.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		return sleeperImpl.Sleep(ctx, capped(strategy(attempts), maxBackoff))
	}
}

// BackoffWithJitter returns a strategy similar to Backoff, but induces a jitter
// on the total delay. The maxBackoff is applied before the jitter.
//
// The jitter parameter is a percentage of the capped delay that the timing can
// be off by. For example, a capped delay of 100ms with a jitter of 0.1 results
// in a delay of 100ms +/- 10ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		delay := capped(strategy(attempts), maxBackoff)
		withJitter := time.Duration(float64(delay) * (1 + (rand.Float64()*jitter*2 - jitter)))
		return sleeperImpl.Sleep(ctx, withJitter)
	}
}

func capped(delay, maxBackoff time.Duration) time.Duration {
	return time.Duration(math.Min(float64(maxBackoff), float64(delay)))
}

type sleeper interface {
	// Sleep blocks for d, returning false if ctx finished first
	Sleep(ctx context.Context, d time.Duration) bool
}

type realSleeper struct{}

func (r *realSleeper) Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var sleeperImpl sleeper = &realSleeper{}
