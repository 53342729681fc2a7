package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/nft-staking/pkg/config"
)

var errDeveloperInduced = errors.New("in memory config: developer induced error")

// Config is an in memory config.Config. Tests use it to override bank and
// staking tunables, and to simulate an unavailable source.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	induced  bool
	shutdown bool
}

// NewConfig returns a new in memory config. A nil value reads as
// config.ErrNoValue.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.induced:
		return nil, errDeveloperInduced
	case c.value == nil:
		return nil, config.ErrNoValue
	default:
		return c.value, nil
	}
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.update(func() { c.shutdown = true })
}

// SetValue sets the value returned by subsequent Get calls
func (c *Config) SetValue(value interface{}) {
	c.update(func() { c.value = value })
}

// ClearValue makes subsequent Get calls return config.ErrNoValue
func (c *Config) ClearValue() {
	c.update(func() { c.value = nil })
}

// InduceErrors makes subsequent Get calls fail until StopInducingErrors
func (c *Config) InduceErrors() {
	c.update(func() { c.induced = true })
}

func (c *Config) StopInducingErrors() {
	c.update(func() { c.induced = false })
}

func (c *Config) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
}
