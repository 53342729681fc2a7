package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	// nolint:varcheck,deadcode,unused
	CommandSetAuthority
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	CommandCloseAccount
)

// Error is a token program error code.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs#L10
type Error uint32

const (
	ErrorNotRentExempt Error = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	// nolint:varcheck,deadcode,unused
	ErrorInvalidNumberOfProvidedSigners
	// nolint:varcheck,deadcode,unused
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	// nolint:varcheck,deadcode,unused
	ErrorInvalidState
	ErrorOverflow
	// nolint:varcheck,deadcode,unused
	ErrorAuthorityTypeNotSupported
	// nolint:varcheck,deadcode,unused
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	// nolint:varcheck,deadcode,unused
	ErrorMintDecimalsMismatch
)

var errorMessages = map[Error]string{
	ErrorNotRentExempt:       "Lamport balance below rent-exempt threshold",
	ErrorInsufficientFunds:   "Insufficient funds",
	ErrorInvalidMint:         "Invalid Mint",
	ErrorMintMismatch:        "Account not associated with this Mint",
	ErrorOwnerMismatch:       "Owner does not match",
	ErrorFixedSupply:         "Fixed supply",
	ErrorAlreadyInUse:        "Already in use",
	ErrorUninitializedState:  "State is unititialized",
	ErrorNativeNotSupported:  "Instruction does not support native tokens",
	ErrorNonNativeHasBalance: "Non-native account can only be closed if its balance is zero",
	ErrorInvalidInstruction:  "Invalid instruction",
	ErrorOverflow:            "Operation overflowed",
	ErrorAccountFrozen:       "Account is frozen",
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("token error: %d", uint32(e))
}

func (e Error) Code() uint32 {
	return uint32(e)
}

// Instruction builders follow the account layouts of the single owner
// variants in:
// https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs

// InitializeMint accounts: [writable] mint, [] rent sysvar.
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	data := make([]byte, 1+1+32+1+32)
	data[0] = byte(CommandInitializeMint)
	data[1] = decimals
	copy(data[2:34], mintAuthority)
	if len(freezeAuthority) > 0 {
		data[34] = 1
		copy(data[35:], freezeAuthority)
	}

	return solana.NewInstruction(ProgramKey, data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

// InitializeAccount accounts: [writable] account, [] mint, [] owner, [] rent
// sysvar.
func InitializeAccount(account, mint, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(ProgramKey, []byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

// Transfer accounts: [writable] source, [writable] destination, [signer]
// source owner.
func Transfer(source, dest, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	return authorizedAmountInstruction(CommandTransfer, amount, source, dest, owner)
}

// MintTo accounts: [writable] mint, [writable] destination, [signer] mint
// authority.
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	return authorizedAmountInstruction(CommandMintTo, amount, mint, dest, authority)
}

// CloseAccount moves the account's lamports to dest. Token accounts must be
// empty to be closed.
//
// Accounts: [writable] account, [writable] destination, [signer] owner.
func CloseAccount(account, dest, owner ed25519.PublicKey) solana.Instruction {
	return authorizedInstruction([]byte{byte(CommandCloseAccount)}, account, dest, owner)
}

func authorizedAmountInstruction(command Command, amount uint64, from, to, authority ed25519.PublicKey) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = byte(command)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return authorizedInstruction(data, from, to, authority)
}

func authorizedInstruction(data []byte, from, to, authority ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(ProgramKey, data,
		solana.NewAccountMeta(from, false),
		solana.NewAccountMeta(to, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}
