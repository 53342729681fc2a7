package nftrarity

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
)

var initializeInstructionDiscriminator = []byte{
	175, 175, 109, 31, 13, 152, 155, 237,
}

type InitializeInstructionArgs struct {
	Collection string
	Rarity     string
	Nonce      uint64
}

type InitializeInstructionAccounts struct {
	Admin      ed25519.PublicKey
	RarityInfo ed25519.PublicKey
}

// NewInitializeInstruction writes the admin and labels of a rarity info account
// previously created with CreateAccountWithSeed.
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
		solana.NewReadonlyAccountMeta(accounts.Admin, true),
		solana.NewAccountMeta(accounts.RarityInfo, false),
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
