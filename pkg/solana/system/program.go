package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/nft-staking/pkg/solana"
)

var ProgramKey [32]byte

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
	commandCreateAccountWithSeed
	// nolint:varcheck,deadcode,unused
	commandAdvanceNonceAccount
	// nolint:varcheck,deadcode,unused
	commandWithdrawNonceAccount
	// nolint:varcheck,deadcode,unused
	commandInitializeNonceAccount
	// nolint:varcheck,deadcode,unused
	commandAuthorizeNonceAccount
	commandAllocate
)

// MaxPermittedDataLength is the largest account the system program will
// allocate.
const MaxPermittedDataLength = 10 * 1024 * 1024

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	data := make([]byte, 4+2*8+32)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// CreateAccountWithSeed creates an account at the address derived from base,
// seed and owner. Only base needs to sign.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L91-L107
func CreateAccountWithSeed(funder, address, base ed25519.PublicKey, seed string, lamports, size uint64, owner ed25519.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Created account
	//   2. [SIGNER] (optional) Base account; the account matching the base Pubkey below must be
	//                          provided as a signer, but may be the same as the funding account
	//
	// CreateAccountWithSeed {
	//   base: Pubkey,
	//   seed: String,
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, 4+32+8+len(seed)+2*8+32)

	offset := 0
	binary.LittleEndian.PutUint32(data[offset:], commandCreateAccountWithSeed)
	offset += 4
	copy(data[offset:], base)
	offset += ed25519.PublicKeySize
	binary.LittleEndian.PutUint64(data[offset:], uint64(len(seed)))
	offset += 8
	copy(data[offset:], seed)
	offset += len(seed)
	binary.LittleEndian.PutUint64(data[offset:], lamports)
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], size)
	offset += 8
	copy(data[offset:], owner)

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, false),
	}
	if !bytes.Equal(base, funder) {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(base, true))
	}

	return solana.NewInstruction(ProgramKey[:], data, accounts...)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L85-L89
func Assign(address, owner ed25519.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Assigned account public key
	data := make([]byte, 4+32)
	binary.LittleEndian.PutUint32(data, commandAssign)
	copy(data[4:], owner)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(address, true),
	)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L79-L84
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, commandTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L153-L157
func Allocate(address ed25519.PublicKey, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] New account
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, commandAllocate)
	binary.LittleEndian.PutUint64(data[4:], size)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(address, true),
	)
}
