package bank

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/solana"
)

// executor holds the working set of a single transaction. Accounts are index
// aligned with the message account keys.
type executor struct {
	ctx      context.Context
	log      *logrus.Entry
	programs map[string]solana.Processor
	maxDepth int

	keys     []ed25519.PublicKey
	accounts []*solana.AccountInfo
	logs     []string
}

// frame is a single program invocation, either a top level instruction or a
// cross program invocation.
type frame struct {
	exec    *executor
	program ed25519.PublicKey
	depth   int

	// indices of the invocation accounts within the working set, in
	// instruction order.
	indices   []int
	signers   map[int]bool
	writables map[int]bool

	// pre holds the account state the program's changes are verified against.
	pre map[int]*solana.AccountInfo
}

var _ solana.InvokeContext = (*frame)(nil)

func (e *executor) addLog(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	e.logs = append(e.logs, line)
	e.log.Trace(line)
}

func (e *executor) indexOf(key ed25519.PublicKey) int {
	for i, k := range e.keys {
		if bytes.Equal(k, key) {
			return i
		}
	}
	return -1
}

func (e *executor) newFrame(program ed25519.PublicKey, depth int) *frame {
	return &frame{
		exec:      e,
		program:   program,
		depth:     depth,
		signers:   make(map[int]bool),
		writables: make(map[int]bool),
		pre:       make(map[int]*solana.AccountInfo),
	}
}

func (f *frame) addAccount(index int, isSigner, isWritable bool) {
	f.indices = append(f.indices, index)
	f.signers[index] = f.signers[index] || isSigner
	f.writables[index] = f.writables[index] || isWritable
}

// Context implements solana.InvokeContext.Context
func (f *frame) Context() context.Context {
	return f.exec.ctx
}

// ProgramID implements solana.InvokeContext.ProgramID
func (f *frame) ProgramID() ed25519.PublicKey {
	return f.program
}

// Log implements solana.InvokeContext.Log
func (f *frame) Log(format string, args ...interface{}) {
	f.exec.addLog("Program log: "+format, args...)
}

// Invoke implements solana.InvokeContext.Invoke
func (f *frame) Invoke(ix solana.Instruction) error {
	return f.InvokeSigned(ix)
}

// InvokeSigned implements solana.InvokeContext.InvokeSigned
func (f *frame) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if f.depth+1 > f.exec.maxDepth {
		return solana.InstructionErrorCallDepth
	}

	var pdaSigners []ed25519.PublicKey
	for _, seeds := range signerSeeds {
		address, err := solana.CreateProgramAddress(f.program, seeds...)
		if err != nil {
			return solana.InstructionErrorInvalidSeeds
		}
		pdaSigners = append(pdaSigners, address)
	}

	callee := f.exec.newFrame(ix.Program, f.depth+1)
	for _, meta := range ix.Accounts {
		index := f.indexOf(meta.PublicKey)
		if index < 0 {
			f.exec.addLog("Instruction references an unknown account %s", base58.Encode(meta.PublicKey))
			return solana.InstructionErrorMissingAccount
		}

		if meta.IsWritable && !f.writables[index] {
			f.exec.addLog("%s's writable privilege escalated", base58.Encode(meta.PublicKey))
			return solana.InstructionErrorPrivilegeEscalation
		}
		if meta.IsSigner && !f.signers[index] && !containsKey(pdaSigners, meta.PublicKey) {
			f.exec.addLog("%s's signer privilege escalated", base58.Encode(meta.PublicKey))
			return solana.InstructionErrorPrivilegeEscalation
		}

		callee.addAccount(index, meta.IsSigner, meta.IsWritable)
	}

	if err := f.verify(); err != nil {
		return err
	}

	if err := callee.execute(ix.Data); err != nil {
		return err
	}

	f.snapshot()
	return nil
}

func (f *frame) indexOf(key ed25519.PublicKey) int {
	for _, index := range f.indices {
		if bytes.Equal(f.exec.keys[index], key) {
			return index
		}
	}
	return -1
}

// execute runs the frame's program and verifies the account changes it made.
func (f *frame) execute(data []byte) error {
	programID := base58.Encode(f.program)

	processor, ok := f.exec.programs[string(f.program)]
	if !ok {
		f.exec.addLog("Program %s is not deployed", programID)
		return solana.InstructionErrorUnsupportedProgramID
	}

	accounts := make([]*solana.KeyedAccount, len(f.indices))
	for i, index := range f.indices {
		accounts[i] = &solana.KeyedAccount{
			Key:         f.exec.keys[index],
			IsSigner:    f.signers[index],
			IsWritable:  f.writables[index],
			AccountInfo: f.exec.accounts[index],
		}
	}

	f.snapshot()

	f.exec.addLog("Program %s invoke [%d]", programID, f.depth)
	err := processor.Process(f, accounts, data)
	if err == nil {
		err = f.verify()
	}
	if err != nil {
		f.exec.addLog("Program %s failed: %v", programID, err)
		return err
	}

	f.exec.addLog("Program %s success", programID)
	return nil
}

func (f *frame) snapshot() {
	for _, index := range f.indices {
		f.pre[index] = f.exec.accounts[index].Clone()
	}
}

// verify checks the changes made to the frame's accounts since the last
// snapshot against the account rules of the ledger.
func (f *frame) verify() error {
	var preLamports, postLamports uint64

	for index, pre := range f.pre {
		post := f.exec.accounts[index]
		isOwner := bytes.Equal(pre.Owner, f.program)
		isWritable := f.writables[index]

		if !bytes.Equal(pre.Owner, post.Owner) {
			if !isOwner || !isWritable {
				return solana.InstructionErrorModifiedProgramID
			}
		}

		if pre.Lamports != post.Lamports {
			if !isWritable {
				return solana.InstructionErrorReadonlyLamportChange
			}
			if post.Lamports < pre.Lamports && !isOwner {
				return solana.InstructionErrorExternalAccountLamportSpend
			}
		}

		if !bytes.Equal(pre.Data, post.Data) || len(pre.Data) != len(post.Data) {
			if !isWritable {
				return solana.InstructionErrorReadonlyDataModified
			}
			if !isOwner {
				return solana.InstructionErrorExternalAccountDataModified
			}
		}

		if pre.Executable != post.Executable {
			return solana.InstructionErrorExecutableModified
		}

		preLamports += pre.Lamports
		postLamports += post.Lamports
	}

	if preLamports != postLamports {
		return solana.InstructionErrorUnbalancedInstruction
	}
	return nil
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
