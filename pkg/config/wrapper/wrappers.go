package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// converter turns a raw source value into T. Sources like environment
// variables yield []byte, while in memory overrides yield T directly.
type converter[T any] func(raw interface{}) (T, error)

// typed remembers the last successfully read value so that a transient
// source error degrades to stale config rather than zero values.
type typed[T any] struct {
	override     config.Config
	defaultValue T
	convert      converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newTyped[T any](override config.Config, defaultValue T, convert converter[T]) *typed[T] {
	return &typed[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typed[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.set(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(raw)
	if err != nil {
		return lastValue, err
	}
	c.set(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typed[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typed[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *typed[T]) set(value T) {
	c.stateMu.Lock()
	c.lastValue = value
	c.stateMu.Unlock()
}

// NewBoolConfig returns a bool config that accepts bool or parseable []byte sources
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTyped(override, defaultValue, func(raw interface{}) (bool, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(v))
		case bool:
			return v, nil
		default:
			return false, ErrUnsuportedConversion
		}
	})
}

// NewUint64Config returns a uint64 config that accepts uint64, uint or parseable []byte sources
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTyped(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(v), 10, 64)
		case uint64:
			return v, nil
		case uint:
			return uint64(v), nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewFloat64Config returns a float64 config that accepts float64 or parseable []byte sources
func NewFloat64Config(override config.Config, defaultValue float64) config.Float64 {
	return newTyped(override, defaultValue, func(raw interface{}) (float64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseFloat(string(v), 64)
		case float64:
			return v, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewStringConfig returns a string config that accepts string or []byte sources
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newTyped(override, defaultValue, func(raw interface{}) (string, error) {
		switch v := raw.(type) {
		case []byte:
			return string(v), nil
		case string:
			return v, nil
		default:
			return "", ErrUnsuportedConversion
		}
	})
}

// NewDurationConfig returns a duration config. []byte sources accept both
// time.ParseDuration strings and a bare integer number of seconds.
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newTyped(override, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch v := raw.(type) {
		case []byte:
			if seconds, err := strconv.ParseUint(string(v), 10, 64); err == nil {
				return time.Duration(seconds) * time.Second, nil
			}
			return time.ParseDuration(string(v))
		case time.Duration:
			return v, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}
