package nftstaking

import (
	"fmt"

	"github.com/code-payments/nft-staking/pkg/solana"
)

type Error uint32

const (
	// Prove token authority doesn't match the program address derived from the pool
	ErrInvalidAuthority Error = iota + 0x1770

	// Holding account address, owner or mint doesn't match what's expected
	ErrInvalidAssociatedHoldingAccount

	// Allow list account doesn't match the pool or the seed derivation
	ErrInvalidAllowListAccount

	// Asset isn't on the allow list
	ErrAssetNotEligible

	// Signer isn't allowed to perform the operation
	ErrInsufficientAuthorization

	// Pool address doesn't match the program address derived from the allow list
	ErrInvalidPoolAccount

	// Vault record address doesn't match the program address derived from the asset and pool
	ErrInvalidVaultAccount

	ErrInvalidMint
	ErrAccountNotInitialized
	ErrAccountAlreadyInitialized
	ErrAccountOwnedByWrongProgram
	ErrMissingSigner
	ErrAccountNotWritable
	ErrInvalidProgramAccount
	ErrInvalidInstruction
	ErrArithmeticOverflow
)

var _ solana.ProgramError = ErrInvalidAuthority

var errorMessages = map[Error]string{
	ErrInvalidAuthority:                "ProveTokenAuthority verification failed. Mismatch in findProgramAddress.",
	ErrInvalidAssociatedHoldingAccount: "Holding account verification failed.",
	ErrInvalidAllowListAccount:         "RarityInfo verification failed. Mismatch in createWithSeed.",
	ErrAssetNotEligible:                "Mint not found in allowed mint list.",
	ErrInsufficientAuthorization:       "Signer is not authorized.",
	ErrInvalidPoolAccount:              "PoolInfo verification failed. Mismatch in findProgramAddress.",
	ErrInvalidVaultAccount:             "NftVaultAccount verification failed. Mismatch in findProgramAddress.",
	ErrInvalidMint:                     "Invalid mint.",
	ErrAccountNotInitialized:           "Account is not initialized.",
	ErrAccountAlreadyInitialized:       "Account is already initialized.",
	ErrAccountOwnedByWrongProgram:      "Account is owned by the wrong program.",
	ErrMissingSigner:                   "Missing required signature.",
	ErrAccountNotWritable:              "Account is not writable.",
	ErrInvalidProgramAccount:           "Invalid program account.",
	ErrInvalidInstruction:              "Invalid instruction.",
	ErrArithmeticOverflow:              "Arithmetic overflow.",
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("staking error: %d", uint32(e))
}

func (e Error) Code() uint32 {
	return uint32(e)
}
