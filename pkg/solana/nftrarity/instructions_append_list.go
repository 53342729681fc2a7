package nftrarity

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
)

var appendListInstructionDiscriminator = []byte{
	27, 255, 207, 37, 167, 68, 81, 150,
}

type AppendListInstructionArgs struct {
	MintList []ed25519.PublicKey
}

type AppendListInstructionAccounts struct {
	Admin      ed25519.PublicKey
	RarityInfo ed25519.PublicKey
}

// NewAppendListInstruction appends mints to a rarity info account. The account
// grows to fit the list, with the admin funding the additional rent.
func NewAppendListInstruction(
	accounts *AppendListInstructionAccounts,
	args *AppendListInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(appendListInstructionDiscriminator)+
			4+len(args.MintList)*ed25519.PublicKeySize)

	putDiscriminator(data, appendListInstructionDiscriminator, &offset)
	putUint32(data, uint32(len(args.MintList)), &offset)
	for _, mint := range args.MintList {
		putKey(data, mint, &offset)
	}

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		solana.NewAccountMeta(accounts.Admin, true),
		solana.NewAccountMeta(accounts.RarityInfo, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)
}

func AppendListInstructionArgsFromBinary(data []byte) (*AppendListInstructionArgs, error) {
	var offset int
	var discriminator []byte

	if len(data) < len(appendListInstructionDiscriminator)+4 {
		return nil, ErrInvalidInstruction
	}

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, appendListInstructionDiscriminator) {
		return nil, ErrInvalidInstruction
	}

	var length uint32
	getUint32(data, &length, &offset)
	if uint64(len(data)) != uint64(offset)+uint64(length)*ed25519.PublicKeySize {
		return nil, ErrInvalidInstruction
	}

	args := &AppendListInstructionArgs{
		MintList: make([]ed25519.PublicKey, length),
	}
	for i := range args.MintList {
		getKey(data, &args.MintList[i], &offset)
	}

	return args, nil
}
