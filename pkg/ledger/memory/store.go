package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/nft-staking/pkg/ledger"
)

type store struct {
	mu       sync.RWMutex
	accounts map[string]*ledger.Account
}

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		accounts: make(map[string]*ledger.Account),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address ed25519.PublicKey) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.accounts[string(address)]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return item.Clone(), nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner ed25519.PublicKey, filters ...ledger.Filter) ([]*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*ledger.Account
	for _, item := range s.accounts {
		if !bytes.Equal(item.Owner, owner) {
			continue
		}
		if !ledger.MatchesAll(item, filters...) {
			continue
		}
		res = append(res, item.Clone())
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].String() < res[j].String()
	})
	return res, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(_ context.Context, accounts ...*ledger.Account) error {
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, account := range accounts {
		if account.IsEmpty() {
			delete(s.accounts, string(account.Address))
			continue
		}

		account.LastUpdatedAt = now
		s.accounts[string(account.Address)] = account.Clone()
	}
	return nil
}

// Count implements ledger.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.accounts)), nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*ledger.Account)
}
