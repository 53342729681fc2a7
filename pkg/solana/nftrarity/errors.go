package nftrarity

import (
	"fmt"

	"github.com/code-payments/nft-staking/pkg/solana"
)

type Error uint32

const (
	// Rarity info address doesn't match the create with seed derivation
	ErrInvalidAccount Error = iota + 0x1770

	// Signer isn't the recorded admin
	ErrInvalidAdmin

	// Collection or rarity label exceeds the fixed length
	ErrLabelTooLong

	ErrAccountNotInitialized
	ErrAccountAlreadyInitialized
	ErrAccountOwnedByWrongProgram
	ErrMissingSigner
	ErrInvalidInstruction
)

var _ solana.ProgramError = ErrInvalidAccount

var errorMessages = map[Error]string{
	ErrInvalidAccount:             "RarityInfo verification failed. Mismatch in createWithSeed.",
	ErrInvalidAdmin:               "Signer is not the rarity info admin",
	ErrLabelTooLong:               "Label exceeds the fixed label length",
	ErrAccountNotInitialized:      "Account is not initialized",
	ErrAccountAlreadyInitialized:  "Account is already initialized",
	ErrAccountOwnedByWrongProgram: "Account is not owned by the rarity program",
	ErrMissingSigner:              "Missing required signature",
	ErrInvalidInstruction:         "Invalid instruction",
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("rarity error: %d", uint32(e))
}

func (e Error) Code() uint32 {
	return uint32(e)
}
