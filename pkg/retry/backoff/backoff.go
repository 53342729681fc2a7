// Package backoff provides delay schedules for retry.
package backoff

import (
	"math"
	"time"
)

// Strategy is a function that provides the amount of time to wait before trying
// again. Note: attempts starts at 1
type Strategy func(attempts uint) time.Duration

// Constant returns a strategy that always returns the provided duration.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Exponential returns a strategy that exponentially increases based off of the
// number of attempts, saturating rather than overflowing.
//
// delay = baseDelay * base^(attempts - 1)
// Ex. Exponential(2*time.Second, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		delay := float64(baseDelay) * math.Pow(base, float64(attempts-1))
		if delay >= math.MaxInt64 || math.IsInf(delay, 0) {
			return math.MaxInt64
		}
		return time.Duration(delay)
	}
}

// BinaryExponential returns an Exponential strategy with a base of 2.0
//
// delay = baseDelay * 2^(attempts - 1)
// Ex. BinaryExponential(10*time.Millisecond) = 10ms, 20ms, 40ms, 80ms, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}
