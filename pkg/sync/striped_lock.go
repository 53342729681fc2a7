package sync

import (
	"sort"
	base "sync"
)

const (
	replicasPerStripe = 200
)

// StripedLock consistently maps a key space onto a fixed set of read/write
// locks, bounding memory regardless of how many keys are locked over time.
// Distinct keys may share a stripe, so holders can contend spuriously.
type StripedLock struct {
	locks []base.RWMutex
	ring  *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
// At least one stripe is always allocated.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks: make([]base.RWMutex, stripes),
		ring:  newRing(stripes, replicasPerStripe),
	}
}

// TryLockKeys attempts to acquire the locks for a set of keys without
// blocking. Stripes containing an exclusive key are write locked, all others
// are read locked. Locks are taken in stripe order. On success the returned
// function releases every lock; on failure no locks are held.
func (l *StripedLock) TryLockKeys(exclusive, shared [][]byte) (unlock func(), ok bool) {
	modes := make(map[int]bool)
	for _, key := range shared {
		modes[l.ring.stripe(key)] = false
	}
	for _, key := range exclusive {
		modes[l.ring.stripe(key)] = true
	}

	stripes := make([]int, 0, len(modes))
	for stripe := range modes {
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	release := func(held []int) {
		for i := len(held) - 1; i >= 0; i-- {
			if modes[held[i]] {
				l.locks[held[i]].Unlock()
			} else {
				l.locks[held[i]].RUnlock()
			}
		}
	}

	held := make([]int, 0, len(stripes))
	for _, stripe := range stripes {
		var acquired bool
		if modes[stripe] {
			acquired = l.locks[stripe].TryLock()
		} else {
			acquired = l.locks[stripe].TryRLock()
		}

		if !acquired {
			release(held)
			return nil, false
		}
		held = append(held, stripe)
	}

	return func() { release(held) }, true
}
