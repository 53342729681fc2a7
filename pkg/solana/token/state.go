package token

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L44
const MintSize = 82

const optionSize = binary.OptionSize

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve. An Account
	// is required to be rent-exempt, so the value is used by the Processor to ensure that wrapped
	// SOL accounts do not drop below this threshold.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	var offset int
	binary.PutKey32(b, a.Mint, &offset)
	binary.PutKey32(b[offset:], a.Owner, &offset)
	binary.PutUint64(b[offset:], a.Amount, &offset)
	binary.PutOptionalKey32(b[offset:], a.Delegate, &offset, optionSize)
	binary.PutUint8(b[offset:], uint8(a.State), &offset)
	binary.PutOptionalUint64(b[offset:], a.IsNative, &offset, optionSize)
	binary.PutUint64(b[offset:], a.DelegatedAmount, &offset)
	binary.PutOptionalKey32(b[offset:], a.CloseAuthority, &offset, optionSize)

	return b
}

func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize {
		return false
	}

	var offset int
	var state uint8
	binary.GetKey32(b, &a.Mint, &offset)
	binary.GetKey32(b[offset:], &a.Owner, &offset)
	binary.GetUint64(b[offset:], &a.Amount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.Delegate, &offset, optionSize)
	binary.GetUint8(b[offset:], &state, &offset)
	binary.GetOptionalUint64(b[offset:], &a.IsNative, &offset, optionSize)
	binary.GetUint64(b[offset:], &a.DelegatedAmount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.CloseAuthority, &offset, optionSize)
	a.State = AccountState(state)

	return true
}

// IsInitialized reports whether the account has been initialized, frozen
// accounts included.
func (a *Account) IsInitialized() bool {
	return a.State != AccountStateUninitialized
}

// Mint is the state of a token mint.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L14
type Mint struct {
	// Optional authority used to mint new tokens. If unset, the supply is
	// fixed.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals uint8
	// Is true if this structure has been initialized
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	b := make([]byte, MintSize)

	var offset int
	binary.PutOptionalKey32(b, m.MintAuthority, &offset, optionSize)
	binary.PutUint64(b[offset:], m.Supply, &offset)
	binary.PutUint8(b[offset:], m.Decimals, &offset)
	binary.PutBool(b[offset:], m.IsInitialized, &offset)
	binary.PutOptionalKey32(b[offset:], m.FreezeAuthority, &offset, optionSize)

	return b
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintSize {
		return false
	}

	var offset int
	binary.GetOptionalKey32(b, &m.MintAuthority, &offset, optionSize)
	binary.GetUint64(b[offset:], &m.Supply, &offset)
	binary.GetUint8(b[offset:], &m.Decimals, &offset)
	binary.GetBool(b[offset:], &m.IsInitialized, &offset)
	binary.GetOptionalKey32(b[offset:], &m.FreezeAuthority, &offset, optionSize)

	return true
}
