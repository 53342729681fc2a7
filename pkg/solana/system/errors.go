package system

import (
	"fmt"

	"github.com/code-payments/nft-staking/pkg/solana"
)

// Error is a system program error code.
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L14
type Error uint32

const (
	ErrAccountAlreadyInUse Error = iota
	ErrResultWithNegativeLamports
	ErrInvalidProgramID
	ErrInvalidAccountDataLength
	ErrMaxSeedLengthExceeded
	ErrAddressWithSeedMismatch
	ErrInsufficientFundsForRent
)

var _ solana.ProgramError = ErrAccountAlreadyInUse

var errorMessages = map[Error]string{
	ErrAccountAlreadyInUse:        "an account with the same address already exists",
	ErrResultWithNegativeLamports: "account does not have enough lamports to perform the operation",
	ErrInvalidProgramID:           "cannot assign account to this program id",
	ErrInvalidAccountDataLength:   "cannot allocate account data of this length",
	ErrMaxSeedLengthExceeded:      "length of requested seed is too long",
	ErrAddressWithSeedMismatch:    "provided address does not match addressed derived from seed",
	ErrInsufficientFundsForRent:   "account would not be rent exempt",
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown system error: %d", uint32(e))
}

func (e Error) Code() uint32 {
	return uint32(e)
}
