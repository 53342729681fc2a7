// Package env reads configuration from environment variables. Variable names
// are the upper cased config keys, and values are looked up on every read.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/nft-staking/pkg/config"
	"github.com/code-payments/nft-staking/pkg/config/wrapper"
)

type variable string

// NewConfig returns a config backed by the environment variable named by the
// upper cased key. Unset and blank variables read as config.ErrNoValue.
func NewConfig(key string) config.Config {
	return variable(strings.ToUpper(key))
}

func (v variable) Get(_ context.Context) (interface{}, error) {
	val := strings.TrimSpace(os.Getenv(string(v)))
	if val == "" {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

func (v variable) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
