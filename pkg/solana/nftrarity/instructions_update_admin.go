package nftrarity

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
)

var updateAdminInstructionDiscriminator = []byte{
	161, 176, 40, 213, 60, 184, 179, 228,
}

type UpdateAdminInstructionAccounts struct {
	Admin      ed25519.PublicKey
	NewAdmin   ed25519.PublicKey
	RarityInfo ed25519.PublicKey
}

func NewUpdateAdminInstruction(accounts *UpdateAdminInstructionAccounts) solana.Instruction {
	data := make([]byte, len(updateAdminInstructionDiscriminator))
	copy(data, updateAdminInstructionDiscriminator)

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		solana.NewReadonlyAccountMeta(accounts.Admin, true),
		solana.NewReadonlyAccountMeta(accounts.NewAdmin, false),
		solana.NewAccountMeta(accounts.RarityInfo, false),
	)
}
