package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

var stakeInstructionDiscriminator = []byte{
	206, 176, 202, 18, 200, 209, 179, 108,
}

const (
	StakeInstructionAccountsCount = 13
)

// StakeInstructionAccounts are the accounts shared by stake and unstake.
type StakeInstructionAccounts struct {
	User                  ed25519.PublicKey
	PoolInfo              ed25519.PublicKey
	ProveTokenMint        ed25519.PublicKey
	NftMint               ed25519.PublicKey
	RarityInfo            ed25519.PublicKey
	UserNftAccount        ed25519.PublicKey
	NftVaultAta           ed25519.PublicKey
	UserProveTokenAccount ed25519.PublicKey
	ProveTokenAuthority   ed25519.PublicKey
	ProveTokenVault       ed25519.PublicKey
	NftVaultAccount       ed25519.PublicKey
}

// NewStakeInstruction escrows one asset into its vault in exchange for one
// prove token. The vault's escrow account must already exist.
func NewStakeInstruction(accounts *StakeInstructionAccounts) solana.Instruction {
	data := make([]byte, len(stakeInstructionDiscriminator))
	copy(data, stakeInstructionDiscriminator)

	metas := stakeAccountMetas(accounts)
	metas = append(metas,
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	)

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		metas...,
	)
}

func stakeAccountMetas(accounts *StakeInstructionAccounts) []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewAccountMeta(accounts.User, true),
		solana.NewAccountMeta(accounts.PoolInfo, false),
		solana.NewReadonlyAccountMeta(accounts.ProveTokenMint, false),
		solana.NewReadonlyAccountMeta(accounts.NftMint, false),
		solana.NewReadonlyAccountMeta(accounts.RarityInfo, false),
		solana.NewAccountMeta(accounts.UserNftAccount, false),
		solana.NewAccountMeta(accounts.NftVaultAta, false),
		solana.NewAccountMeta(accounts.UserProveTokenAccount, false),
		solana.NewAccountMeta(accounts.ProveTokenAuthority, false),
		solana.NewAccountMeta(accounts.ProveTokenVault, false),
		solana.NewAccountMeta(accounts.NftVaultAccount, false),
	}
}
