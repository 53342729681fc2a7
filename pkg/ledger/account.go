package ledger

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// MaxLamports is the largest balance an account can hold. Balances are
// persisted as signed 64 bit integers.
const MaxLamports = math.MaxInt64

var ErrLamportsOutOfRange = errors.New("lamports out of range")

// Account is the committed state of a single ledger address.
type Account struct {
	Address ed25519.PublicKey

	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool

	// Slot is the slot of the transaction that last modified the account.
	Slot uint64

	LastUpdatedAt time.Time
}

func (a *Account) Validate() error {
	if len(a.Address) != ed25519.PublicKeySize {
		return errors.New("address is required")
	}
	if len(a.Owner) != ed25519.PublicKeySize {
		return errors.New("owner is required")
	}
	if a.Lamports > MaxLamports {
		return ErrLamportsOutOfRange
	}
	return nil
}

// IsEmpty reports whether the account holds no lamports. Empty accounts do
// not exist on the ledger and are removed at commit.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0
}

func (a *Account) Clone() *Account {
	cloned := &Account{
		Address:       make(ed25519.PublicKey, len(a.Address)),
		Owner:         make(ed25519.PublicKey, len(a.Owner)),
		Lamports:      a.Lamports,
		Data:          make([]byte, len(a.Data)),
		Executable:    a.Executable,
		Slot:          a.Slot,
		LastUpdatedAt: a.LastUpdatedAt,
	}
	copy(cloned.Address, a.Address)
	copy(cloned.Owner, a.Owner)
	copy(cloned.Data, a.Data)
	return cloned
}

func (a *Account) CopyTo(dst *Account) {
	cloned := a.Clone()
	*dst = *cloned
}

func (a *Account) String() string {
	return base58.Encode(a.Address)
}

// Filter restricts the accounts returned by Store.GetAllByOwner.
type Filter interface {
	Matches(account *Account) bool
}

// DataSizeFilter matches accounts whose data is exactly the given length.
type DataSizeFilter uint64

func (f DataSizeFilter) Matches(account *Account) bool {
	return uint64(len(account.Data)) == uint64(f)
}

// MemcmpFilter matches accounts whose data contains Bytes at Offset.
type MemcmpFilter struct {
	Offset int
	Bytes  []byte
}

func (f MemcmpFilter) Matches(account *Account) bool {
	if f.Offset < 0 || f.Offset+len(f.Bytes) > len(account.Data) {
		return false
	}
	return bytes.Equal(account.Data[f.Offset:f.Offset+len(f.Bytes)], f.Bytes)
}

// MatchesAll reports whether account satisfies every filter.
func MatchesAll(account *Account, filters ...Filter) bool {
	for _, f := range filters {
		if !f.Matches(account) {
			return false
		}
	}
	return true
}
