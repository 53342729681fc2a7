package nftstaking

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

// AllowList is the set of assets eligible for staking in a pool.
type AllowList interface {
	Contains(mint ed25519.PublicKey) bool
	Len() int
}

var _ AllowList = (*nftrarity.RarityInfoAccount)(nil)

// constraint is a single named check over the accounts of an instruction.
type constraint struct {
	name string
	ok   bool
	err  Error
}

// validate evaluates constraints in order and fails on the first one that
// doesn't hold.
func validate(ctx solana.InvokeContext, constraints ...constraint) error {
	for _, c := range constraints {
		if !c.ok {
			ctx.Log("Constraint %s failed: %s", c.name, c.err.Error())
			return c.err
		}
	}
	return nil
}

func isSigner(account *solana.KeyedAccount, name string) constraint {
	return constraint{name: name + ".signer", ok: account.IsSigner, err: ErrMissingSigner}
}

func isWritable(account *solana.KeyedAccount, name string) constraint {
	return constraint{name: name + ".mut", ok: account.IsWritable, err: ErrAccountNotWritable}
}

func keysEqual(name string, a, b ed25519.PublicKey, err Error) constraint {
	return constraint{name: name, ok: len(a) > 0 && bytes.Equal(a, b), err: err}
}

func isAddress(name string, account *solana.KeyedAccount, expected ed25519.PublicKey, err Error) constraint {
	return keysEqual(name, account.Key, expected, err)
}

func loadTokenAccount(ctx solana.InvokeContext, account *solana.KeyedAccount, name string) (*token.Account, error) {
	if account.IsUninitialized() {
		ctx.Log("Token account %s (%s) does not exist", name, base58.Encode(account.Key))
		return nil, ErrAccountNotInitialized
	}
	if !account.IsOwnedBy(token.ProgramKey) {
		ctx.Log("Token account %s (%s) is not owned by the token program", name, base58.Encode(account.Key))
		return nil, ErrAccountOwnedByWrongProgram
	}

	var state token.Account
	if !state.Unmarshal(account.Data) || !state.IsInitialized() {
		return nil, ErrAccountNotInitialized
	}
	return &state, nil
}

func loadMint(ctx solana.InvokeContext, account *solana.KeyedAccount, name string) (*token.Mint, error) {
	if account.IsUninitialized() {
		ctx.Log("Mint %s (%s) does not exist", name, base58.Encode(account.Key))
		return nil, ErrAccountNotInitialized
	}
	if !account.IsOwnedBy(token.ProgramKey) {
		ctx.Log("Mint %s (%s) is not owned by the token program", name, base58.Encode(account.Key))
		return nil, ErrAccountOwnedByWrongProgram
	}

	var state token.Mint
	if !state.Unmarshal(account.Data) || !state.IsInitialized {
		return nil, ErrAccountNotInitialized
	}
	return &state, nil
}

func loadPoolInfo(ctx solana.InvokeContext, account *solana.KeyedAccount) (*PoolInfoAccount, error) {
	if account.IsUninitialized() {
		ctx.Log("Pool %s does not exist", base58.Encode(account.Key))
		return nil, ErrAccountNotInitialized
	}
	if !account.IsOwnedBy(PROGRAM_ID) {
		return nil, ErrAccountOwnedByWrongProgram
	}

	var state PoolInfoAccount
	if err := state.Unmarshal(account.Data); err != nil {
		return nil, ErrAccountNotInitialized
	}
	return &state, nil
}

func loadNftVault(ctx solana.InvokeContext, account *solana.KeyedAccount) (*NftVaultAccount, error) {
	if account.IsUninitialized() {
		ctx.Log("Vault %s does not exist", base58.Encode(account.Key))
		return nil, ErrAccountNotInitialized
	}
	if !account.IsOwnedBy(PROGRAM_ID) {
		return nil, ErrAccountOwnedByWrongProgram
	}

	var state NftVaultAccount
	if err := state.Unmarshal(account.Data); err != nil {
		return nil, ErrAccountNotInitialized
	}
	return &state, nil
}

func loadAllowList(ctx solana.InvokeContext, account *solana.KeyedAccount) (AllowList, error) {
	state, err := nftrarity.LoadRarityInfo(account)
	if err != nil {
		ctx.Log("Allow list %s could not be loaded: %v", base58.Encode(account.Key), err)
		return nil, ErrInvalidAllowListAccount
	}
	return state, nil
}
