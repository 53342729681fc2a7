package nftrarity

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
)

// Processor executes rarity program instructions.
type Processor struct{}

var _ solana.Processor = Processor{}

func (Processor) ProgramID() ed25519.PublicKey {
	return PROGRAM_ID
}

func (p Processor) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	if len(data) < 8 {
		return ErrInvalidInstruction
	}

	switch {
	case bytes.Equal(data[:8], initializeInstructionDiscriminator):
		ctx.Log("Instruction: Initialize")
		args, err := InitializeInstructionArgsFromBinary(data)
		if err != nil {
			return err
		}
		if err := solana.CheckNumAccounts(accounts, 2); err != nil {
			return err
		}
		return p.initialize(ctx, accounts[0], accounts[1], args)

	case bytes.Equal(data[:8], updateAdminInstructionDiscriminator):
		ctx.Log("Instruction: UpdateAdmin")
		if err := solana.CheckNumAccounts(accounts, 3); err != nil {
			return err
		}
		return p.updateAdmin(ctx, accounts[0], accounts[1], accounts[2])

	case bytes.Equal(data[:8], appendListInstructionDiscriminator):
		ctx.Log("Instruction: AppendList")
		args, err := AppendListInstructionArgsFromBinary(data)
		if err != nil {
			return err
		}
		if err := solana.CheckNumAccounts(accounts, 2); err != nil {
			return err
		}
		return p.appendList(ctx, accounts[0], accounts[1], args.MintList)

	default:
		return ErrInvalidInstruction
	}
}

func (p Processor) initialize(ctx solana.InvokeContext, admin, rarityInfo *solana.KeyedAccount, args *InitializeInstructionArgs) error {
	if !admin.IsSigner {
		return ErrMissingSigner
	}
	if !rarityInfo.IsOwnedBy(PROGRAM_ID) {
		return ErrAccountOwnedByWrongProgram
	}
	if len(rarityInfo.Data) < RarityInfoAccountSize {
		return ErrAccountNotInitialized
	}
	if !isZeroed(rarityInfo.Data) {
		return ErrAccountAlreadyInitialized
	}

	expected, _, err := GetRarityInfoAddress(&GetRarityInfoAddressArgs{
		Admin:      admin.Key,
		Collection: args.Collection,
		Rarity:     args.Rarity,
		Nonce:      args.Nonce,
	})
	if err != nil || !bytes.Equal(expected, rarityInfo.Key) {
		ctx.Log("Rarity info %s does not match derived address", base58.Encode(rarityInfo.Key))
		return ErrInvalidAccount
	}

	collection, err := ToFixedLength(args.Collection)
	if err != nil {
		return err
	}
	rarity, err := ToFixedLength(args.Rarity)
	if err != nil {
		return err
	}

	state := &RarityInfoAccount{
		Admin:      append(ed25519.PublicKey(nil), admin.Key...),
		Collection: collection,
		Rarity:     rarity,
	}
	copy(rarityInfo.Data, state.Marshal())
	return nil
}

func (p Processor) updateAdmin(ctx solana.InvokeContext, admin, newAdmin, rarityInfo *solana.KeyedAccount) error {
	state, err := p.loadAuthorized(ctx, admin, rarityInfo)
	if err != nil {
		return err
	}

	state.Admin = append(ed25519.PublicKey(nil), newAdmin.Key...)
	copy(rarityInfo.Data, state.Marshal())
	return nil
}

func (p Processor) appendList(ctx solana.InvokeContext, admin, rarityInfo *solana.KeyedAccount, mints []ed25519.PublicKey) error {
	state, err := p.loadAuthorized(ctx, admin, rarityInfo)
	if err != nil {
		return err
	}

	state.MintList = append(state.MintList, mints...)
	updated := state.Marshal()

	if len(updated) > len(rarityInfo.Data) {
		if uint64(len(updated)) > system.MaxPermittedDataLength {
			return solana.InstructionErrorInvalidRealloc
		}

		rent := system.Rent.MinimumBalance(uint64(len(updated)))
		if rarityInfo.Lamports < rent {
			ctx.Log("Funding %d lamports of additional rent", rent-rarityInfo.Lamports)
			if err := ctx.Invoke(system.Transfer(admin.Key, rarityInfo.Key, rent-rarityInfo.Lamports)); err != nil {
				return err
			}
		}

		rarityInfo.Data = make([]byte, len(updated))
	}

	copy(rarityInfo.Data, updated)
	ctx.Log("Appended %d mints, %d total", len(mints), len(state.MintList))
	return nil
}

func (p Processor) loadAuthorized(ctx solana.InvokeContext, admin, rarityInfo *solana.KeyedAccount) (*RarityInfoAccount, error) {
	if !admin.IsSigner {
		return nil, ErrMissingSigner
	}

	state, err := loadRarityInfo(rarityInfo)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(state.Admin, admin.Key) {
		ctx.Log("Signer %s is not the admin %s", base58.Encode(admin.Key), base58.Encode(state.Admin))
		return nil, ErrInvalidAdmin
	}
	return state, nil
}

func loadRarityInfo(account *solana.KeyedAccount) (*RarityInfoAccount, error) {
	if !account.IsOwnedBy(PROGRAM_ID) {
		return nil, ErrAccountOwnedByWrongProgram
	}

	var state RarityInfoAccount
	if err := state.Unmarshal(account.Data); err != nil {
		return nil, ErrAccountNotInitialized
	}
	return &state, nil
}

// LoadRarityInfo decodes a rarity info account passed to another program.
func LoadRarityInfo(account *solana.KeyedAccount) (*RarityInfoAccount, error) {
	return loadRarityInfo(account)
}
