package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	require.NoError(t, WaitFor(50*time.Millisecond, 10*time.Millisecond, func() bool {
		return true
	}))

	err := WaitFor(50*time.Millisecond, 10*time.Millisecond, func() bool {
		return false
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "condition not met")

	require.Error(t, WaitFor(50*time.Millisecond, 100*time.Millisecond, func() bool {
		return true
	}))
}

func TestWaitFor_Eventually(t *testing.T) {
	var polls atomic.Int32
	require.NoError(t, WaitFor(time.Second, time.Millisecond, func() bool {
		return polls.Add(1) >= 3
	}))
	assert.EqualValues(t, 3, polls.Load())
}
