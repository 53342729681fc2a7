package solana

import (
	"bytes"
	"crypto/ed25519"
)

// AccountMeta is an account referenced by an instruction, along with the
// permissions the instruction needs on it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta returns a writable account reference.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns a read-only account reference.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner}
}

// merge widens the permissions of m with those of other, which must
// reference the same account.
func (m *AccountMeta) merge(other AccountMeta) {
	m.IsSigner = m.IsSigner || other.IsSigner
	m.IsWritable = m.IsWritable || other.IsWritable
	m.isPayer = m.isPayer || other.isPayer
	m.isProgram = m.isProgram || other.isProgram
}

// rank orders accounts within a message. The payer leads, followed by signers
// and then the remaining accounts, writable before read-only. Programs that
// aren't otherwise referenced go last.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func (m *AccountMeta) rank() int {
	switch {
	case m.isPayer:
		return 0
	case m.isProgram && !m.IsSigner && !m.IsWritable:
		return 5
	case m.IsSigner && m.IsWritable:
		return 1
	case m.IsSigner:
		return 2
	case m.IsWritable:
		return 3
	default:
		return 4
	}
}

func lessAccountMeta(a, b AccountMeta) bool {
	if ra, rb := a.rank(), b.rank(); ra != rb {
		return ra < rb
	}
	return bytes.Compare(a.PublicKey, b.PublicKey) < 0
}

// Instruction is a single program invocation.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an Instruction whose program and accounts are
// indices into the message's account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
