package nftstaking

import (
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

var unstakeInstructionDiscriminator = []byte{
	90, 95, 107, 42, 205, 124, 50, 225,
}

const (
	UnstakeInstructionAccountsCount = 12
)

type UnstakeInstructionAccounts = StakeInstructionAccounts

// NewUnstakeInstruction returns a staked asset to its owner, reclaims the
// prove token and closes the vault.
func NewUnstakeInstruction(accounts *UnstakeInstructionAccounts) solana.Instruction {
	data := make([]byte, len(unstakeInstructionDiscriminator))
	copy(data, unstakeInstructionDiscriminator)

	metas := stakeAccountMetas(accounts)
	metas = append(metas, solana.NewReadonlyAccountMeta(token.ProgramKey, false))

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		metas...,
	)
}
