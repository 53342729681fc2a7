package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a source of untyped configuration values, such as an environment
// variable or an in memory override.
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Value is a typed view over a Config.
//
// GetSafe surfaces source errors alongside a best-effort value, while Get
// swallows them. Bank and staking tunables read through Get on every use, so
// an override takes effect without a restart.
type Value[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Bool     = Value[bool]
	Duration = Value[time.Duration]
	Float64  = Value[float64]
	Uint64   = Value[uint64]
	String   = Value[string]
)
