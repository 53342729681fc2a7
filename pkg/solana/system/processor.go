package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/nft-staking/pkg/solana"
)

// Processor executes system program instructions.
type Processor struct{}

var _ solana.Processor = Processor{}

func (Processor) ProgramID() ed25519.PublicKey {
	return ProgramKey[:]
}

func (p Processor) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	if len(data) < 4 {
		return solana.InstructionErrorInvalidInstructionData
	}

	switch binary.LittleEndian.Uint32(data) {
	case commandCreateAccount:
		if len(data) != 4+2*8+32 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := solana.CheckNumAccounts(accounts, 2); err != nil {
			return err
		}

		lamports := binary.LittleEndian.Uint64(data[4:])
		size := binary.LittleEndian.Uint64(data[12:])
		owner := ed25519.PublicKey(data[20:52])
		return p.createAccount(ctx, accounts[0], accounts[1], accounts[1].IsSigner, lamports, size, owner)

	case commandCreateAccountWithSeed:
		if err := solana.CheckNumAccounts(accounts, 2); err != nil {
			return err
		}
		if len(data) < 4+32+8 {
			return solana.InstructionErrorInvalidInstructionData
		}

		base := ed25519.PublicKey(data[4:36])
		seedLen := binary.LittleEndian.Uint64(data[36:])
		if seedLen > uint64(len(data)) || len(data) != 4+32+8+int(seedLen)+2*8+32 {
			return solana.InstructionErrorInvalidInstructionData
		}

		offset := 44
		seed := string(data[offset : offset+int(seedLen)])
		offset += int(seedLen)
		lamports := binary.LittleEndian.Uint64(data[offset:])
		offset += 8
		size := binary.LittleEndian.Uint64(data[offset:])
		offset += 8
		owner := ed25519.PublicKey(data[offset : offset+32])

		expected, err := solana.CreateWithSeed(base, seed, owner)
		if err != nil {
			return ErrMaxSeedLengthExceeded
		}
		if !bytes.Equal(expected, accounts[1].Key) {
			ctx.Log("Create: address %s does not match derived address %s", base58.Encode(accounts[1].Key), base58.Encode(expected))
			return ErrAddressWithSeedMismatch
		}

		return p.createAccount(ctx, accounts[0], accounts[1], isSignedBy(accounts, base), lamports, size, owner)

	case commandTransfer:
		if len(data) != 4+8 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := solana.CheckNumAccounts(accounts, 2); err != nil {
			return err
		}
		return p.transfer(ctx, accounts[0], accounts[1], binary.LittleEndian.Uint64(data[4:]))

	case commandAssign:
		if len(data) != 4+32 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := solana.CheckNumAccounts(accounts, 1); err != nil {
			return err
		}
		return p.assign(ctx, accounts[0], accounts[0].IsSigner, ed25519.PublicKey(data[4:36]))

	case commandAllocate:
		if len(data) != 4+8 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := solana.CheckNumAccounts(accounts, 1); err != nil {
			return err
		}
		return p.allocate(ctx, accounts[0], accounts[0].IsSigner, binary.LittleEndian.Uint64(data[4:]))

	default:
		return solana.InstructionErrorInvalidInstructionData
	}
}

func (p Processor) createAccount(ctx solana.InvokeContext, funder, account *solana.KeyedAccount, signed bool, lamports, size uint64, owner ed25519.PublicKey) error {
	if account.Lamports > 0 {
		ctx.Log("Create Account: account %s already in use", base58.Encode(account.Key))
		return ErrAccountAlreadyInUse
	}
	if !Rent.IsExempt(lamports, size) {
		ctx.Log("Create Account: %d lamports is below the rent exempt minimum of %d", lamports, Rent.MinimumBalance(size))
		return ErrInsufficientFundsForRent
	}

	if err := p.allocate(ctx, account, signed, size); err != nil {
		return err
	}
	if err := p.assign(ctx, account, signed, owner); err != nil {
		return err
	}
	return p.transfer(ctx, funder, account, lamports)
}

func (p Processor) allocate(ctx solana.InvokeContext, account *solana.KeyedAccount, signed bool, size uint64) error {
	if !signed {
		ctx.Log("Allocate: 'to' account %s must sign", base58.Encode(account.Key))
		return solana.InstructionErrorMissingRequiredSignature
	}

	if len(account.Data) > 0 || !account.IsOwnedBy(ProgramKey[:]) {
		ctx.Log("Allocate: account %s already in use", base58.Encode(account.Key))
		return ErrAccountAlreadyInUse
	}
	if size > MaxPermittedDataLength {
		ctx.Log("Allocate: requested %d, max allowed %d", size, MaxPermittedDataLength)
		return ErrInvalidAccountDataLength
	}

	account.Data = make([]byte, size)
	return nil
}

func (p Processor) assign(ctx solana.InvokeContext, account *solana.KeyedAccount, signed bool, owner ed25519.PublicKey) error {
	if account.IsOwnedBy(owner) {
		return nil
	}

	if !signed {
		ctx.Log("Assign: account %s must sign", base58.Encode(account.Key))
		return solana.InstructionErrorMissingRequiredSignature
	}
	if !account.IsOwnedBy(ProgramKey[:]) {
		return solana.InstructionErrorModifiedProgramID
	}

	account.Owner = append(ed25519.PublicKey(nil), owner...)
	return nil
}

func (p Processor) transfer(ctx solana.InvokeContext, from, to *solana.KeyedAccount, lamports uint64) error {
	if !from.IsSigner {
		ctx.Log("Transfer: `from` account %s must sign", base58.Encode(from.Key))
		return solana.InstructionErrorMissingRequiredSignature
	}
	if len(from.Data) > 0 {
		ctx.Log("Transfer: `from` must not carry data")
		return solana.InstructionErrorInvalidArgument
	}
	if from.Lamports < lamports {
		ctx.Log("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return ErrResultWithNegativeLamports
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

// isSignedBy reports whether any of the accounts is a signer with the given
// address. Accounts created with a seed are authorized by their base.
func isSignedBy(accounts []*solana.KeyedAccount, address ed25519.PublicKey) bool {
	for _, account := range accounts {
		if account.IsSigner && bytes.Equal(account.Key, address) {
			return true
		}
	}
	return false
}
