package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// ErrNoAccountInfo indicates there is no account stored at an address.
var ErrNoAccountInfo = errors.New("no account info")

// AccountInfoGetter reads committed account state.
type AccountInfoGetter interface {
	// GetAccountInfo returns ErrNoAccountInfo when the address holds no account.
	GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*AccountInfo, error)
}

// AccountInfo is the state of a ledger account as seen by programs.
type AccountInfo struct {
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Clone returns a deep copy of the account state.
func (a *AccountInfo) Clone() *AccountInfo {
	cloned := &AccountInfo{
		Owner:      make(ed25519.PublicKey, len(a.Owner)),
		Lamports:   a.Lamports,
		Data:       make([]byte, len(a.Data)),
		Executable: a.Executable,
	}
	copy(cloned.Owner, a.Owner)
	copy(cloned.Data, a.Data)
	return cloned
}

// KeyedAccount is an account passed to a program along with the permissions
// granted to it by the invoking instruction. Accounts referenced more than
// once within a transaction share the same underlying AccountInfo.
type KeyedAccount struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	*AccountInfo
}

// IsOwnedBy reports whether the account is owned by program.
func (a *KeyedAccount) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// IsUninitialized reports whether the account holds neither lamports nor data.
func (a *KeyedAccount) IsUninitialized() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

// InvokeContext is the execution environment handed to a program.
type InvokeContext interface {
	// Context is the context of the transaction being processed.
	Context() context.Context

	// ProgramID is the program currently executing.
	ProgramID() ed25519.PublicKey

	// Invoke executes ix as a cross program invocation. Signer privileges
	// of the current instruction extend to the callee.
	Invoke(ix Instruction) error

	// InvokeSigned is Invoke where program addresses derived from the current
	// program and one of signerSeeds also act as signers.
	InvokeSigned(ix Instruction, signerSeeds ...[][]byte) error

	// Log records a program log line.
	Log(format string, args ...interface{})
}

// Processor executes the instructions of a single program.
type Processor interface {
	ProgramID() ed25519.PublicKey
	Process(ctx InvokeContext, accounts []*KeyedAccount, data []byte) error
}

// CheckNumAccounts returns InstructionErrorNotEnoughAccountKeys when fewer
// than n accounts were provided.
func CheckNumAccounts(accounts []*KeyedAccount, n int) error {
	if len(accounts) < n {
		return InstructionErrorNotEnoughAccountKeys
	}
	return nil
}
