package nftstaking

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

var initializeInstructionDiscriminator = []byte{
	175, 175, 109, 31, 13, 152, 155, 237,
}

const (
	InitializeInstructionAccountsCount = 10
)

type InitializeInstructionArgs struct {
	Collection string
	Rarity     string
	Nonce      uint64
}

type InitializeInstructionAccounts struct {
	Admin                  ed25519.PublicKey
	ProveTokenMint         ed25519.PublicKey
	AdminProveTokenAccount ed25519.PublicKey
	ProveTokenAuthority    ed25519.PublicKey
	ProveTokenVault        ed25519.PublicKey
	PoolInfo               ed25519.PublicKey
	RarityInfo             ed25519.PublicKey
	RarityProgram          ed25519.PublicKey
}

// NewInitializeInstruction creates the pool for an allow list and seeds its
// prove token vault with one token per eligible asset.
func NewInitializeInstruction(
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(initializeInstructionDiscriminator)+
			4+len(args.Collection)+
			4+len(args.Rarity)+
			8)

	putDiscriminator(data, initializeInstructionDiscriminator, &offset)
	putString(data, args.Collection, &offset)
	putString(data, args.Rarity, &offset)
	putUint64(data, args.Nonce, &offset)

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		solana.NewAccountMeta(accounts.Admin, true),
		solana.NewReadonlyAccountMeta(accounts.ProveTokenMint, false),
		solana.NewAccountMeta(accounts.AdminProveTokenAccount, false),
		solana.NewAccountMeta(accounts.ProveTokenAuthority, false),
		solana.NewAccountMeta(accounts.ProveTokenVault, false),
		solana.NewAccountMeta(accounts.PoolInfo, false),
		solana.NewReadonlyAccountMeta(accounts.RarityInfo, false),
		solana.NewReadonlyAccountMeta(accounts.RarityProgram, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	)
}

func InitializeInstructionArgsFromBinary(data []byte) (*InitializeInstructionArgs, error) {
	var offset int
	var discriminator []byte

	if len(data) < len(initializeInstructionDiscriminator) {
		return nil, ErrInvalidInstruction
	}

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, initializeInstructionDiscriminator) {
		return nil, ErrInvalidInstruction
	}

	var args InitializeInstructionArgs
	if !getString(data, &args.Collection, &offset) || !getString(data, &args.Rarity, &offset) {
		return nil, ErrInvalidInstruction
	}
	if len(data) != offset+8 {
		return nil, ErrInvalidInstruction
	}
	getUint64(data, &args.Nonce, &offset)

	return &args, nil
}
