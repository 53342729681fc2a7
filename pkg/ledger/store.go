package ledger

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

type Store interface {
	// Get returns the account stored at address. ErrAccountNotFound is returned
	// if the address holds no account.
	Get(ctx context.Context, address ed25519.PublicKey) (*Account, error)

	// GetAllByOwner returns all accounts owned by owner that satisfy every
	// filter, ordered by base58 address.
	GetAllByOwner(ctx context.Context, owner ed25519.PublicKey, filters ...Filter) ([]*Account, error)

	// Commit atomically upserts the given accounts. Empty accounts are deleted.
	// Either every write is applied or none are.
	Commit(ctx context.Context, accounts ...*Account) error

	// Count returns the number of accounts stored.
	Count(ctx context.Context) (uint64, error)
}
