package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
)

// Processor executes token program instructions for single owner accounts.
type Processor struct{}

var _ solana.Processor = Processor{}

func (Processor) ProgramID() ed25519.PublicKey {
	return ProgramKey
}

func (p Processor) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	if len(data) == 0 {
		return ErrorInvalidInstruction
	}

	switch Command(data[0]) {
	case CommandInitializeMint:
		ctx.Log("Instruction: InitializeMint")
		if err := solana.CheckNumAccounts(accounts, 1); err != nil {
			return err
		}
		if len(data) < 1+1+32+1 {
			return ErrorInvalidInstruction
		}

		var freezeAuthority ed25519.PublicKey
		if data[34] == 1 {
			if len(data) < 1+1+32+1+32 {
				return ErrorInvalidInstruction
			}
			freezeAuthority = data[35:67]
		}
		return p.initializeMint(accounts[0], data[2:34], freezeAuthority, data[1])

	case CommandInitializeAccount:
		ctx.Log("Instruction: InitializeAccount")
		if err := solana.CheckNumAccounts(accounts, 3); err != nil {
			return err
		}
		return p.initializeAccount(accounts[0], accounts[1], accounts[2])

	case CommandTransfer:
		ctx.Log("Instruction: Transfer")
		amount, err := parseAmount(data)
		if err != nil {
			return err
		}
		if err := solana.CheckNumAccounts(accounts, 3); err != nil {
			return err
		}
		return p.transfer(accounts[0], accounts[1], accounts[2], amount)

	case CommandMintTo:
		ctx.Log("Instruction: MintTo")
		amount, err := parseAmount(data)
		if err != nil {
			return err
		}
		if err := solana.CheckNumAccounts(accounts, 3); err != nil {
			return err
		}
		return p.mintTo(accounts[0], accounts[1], accounts[2], amount)

	case CommandCloseAccount:
		ctx.Log("Instruction: CloseAccount")
		if err := solana.CheckNumAccounts(accounts, 3); err != nil {
			return err
		}
		return p.closeAccount(accounts[0], accounts[1], accounts[2])

	default:
		return ErrorInvalidInstruction
	}
}

func (p Processor) initializeMint(mintAccount *solana.KeyedAccount, mintAuthority, freezeAuthority ed25519.PublicKey, decimals uint8) error {
	if !mintAccount.IsOwnedBy(ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	var mint Mint
	if !mint.Unmarshal(mintAccount.Data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if mint.IsInitialized {
		return ErrorAlreadyInUse
	}
	if !system.Rent.IsExempt(mintAccount.Lamports, uint64(len(mintAccount.Data))) {
		return ErrorNotRentExempt
	}

	mint = Mint{
		MintAuthority:   append(ed25519.PublicKey(nil), mintAuthority...),
		Decimals:        decimals,
		IsInitialized:   true,
		FreezeAuthority: append(ed25519.PublicKey(nil), freezeAuthority...),
	}

	copy(mintAccount.Data, mint.Marshal())
	return nil
}

func (p Processor) initializeAccount(tokenAccount, mintAccount, owner *solana.KeyedAccount) error {
	if !tokenAccount.IsOwnedBy(ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	var account Account
	if !account.Unmarshal(tokenAccount.Data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if account.IsInitialized() {
		return ErrorAlreadyInUse
	}
	if !system.Rent.IsExempt(tokenAccount.Lamports, uint64(len(tokenAccount.Data))) {
		return ErrorNotRentExempt
	}

	if _, err := loadMint(mintAccount); err != nil {
		return ErrorInvalidMint
	}

	account = Account{
		Mint:  append(ed25519.PublicKey(nil), mintAccount.Key...),
		Owner: append(ed25519.PublicKey(nil), owner.Key...),
		State: AccountStateInitialized,
	}

	copy(tokenAccount.Data, account.Marshal())
	return nil
}

func (p Processor) transfer(sourceAccount, destAccount, authority *solana.KeyedAccount, amount uint64) error {
	source, err := loadAccount(sourceAccount)
	if err != nil {
		return err
	}
	dest, err := loadAccount(destAccount)
	if err != nil {
		return err
	}

	if source.State == AccountStateFrozen || dest.State == AccountStateFrozen {
		return ErrorAccountFrozen
	}
	if source.Amount < amount {
		return ErrorInsufficientFunds
	}
	if !bytes.Equal(source.Mint, dest.Mint) {
		return ErrorMintMismatch
	}
	if err := validateOwner(source.Owner, authority); err != nil {
		return err
	}

	if bytes.Equal(sourceAccount.Key, destAccount.Key) {
		return nil
	}

	source.Amount -= amount
	if dest.Amount > math.MaxUint64-amount {
		return ErrorOverflow
	}
	dest.Amount += amount

	copy(sourceAccount.Data, source.Marshal())
	copy(destAccount.Data, dest.Marshal())
	return nil
}

func (p Processor) mintTo(mintAccount, destAccount, authority *solana.KeyedAccount, amount uint64) error {
	dest, err := loadAccount(destAccount)
	if err != nil {
		return err
	}
	if dest.State == AccountStateFrozen {
		return ErrorAccountFrozen
	}
	if !bytes.Equal(dest.Mint, mintAccount.Key) {
		return ErrorMintMismatch
	}

	mint, err := loadMint(mintAccount)
	if err != nil {
		return err
	}
	if len(mint.MintAuthority) == 0 {
		return ErrorFixedSupply
	}
	if err := validateOwner(mint.MintAuthority, authority); err != nil {
		return err
	}

	if dest.Amount > math.MaxUint64-amount || mint.Supply > math.MaxUint64-amount {
		return ErrorOverflow
	}
	dest.Amount += amount
	mint.Supply += amount

	copy(destAccount.Data, dest.Marshal())
	copy(mintAccount.Data, mint.Marshal())
	return nil
}

func (p Processor) closeAccount(sourceAccount, destAccount, authority *solana.KeyedAccount) error {
	if bytes.Equal(sourceAccount.Key, destAccount.Key) {
		return solana.InstructionErrorInvalidAccountData
	}

	source, err := loadAccount(sourceAccount)
	if err != nil {
		return err
	}
	if source.IsNative == nil && source.Amount != 0 {
		return ErrorNonNativeHasBalance
	}

	closeAuthority := source.Owner
	if len(source.CloseAuthority) > 0 {
		closeAuthority = source.CloseAuthority
	}
	if err := validateOwner(closeAuthority, authority); err != nil {
		return err
	}

	destAccount.Lamports += sourceAccount.Lamports
	sourceAccount.Lamports = 0
	for i := range sourceAccount.Data {
		sourceAccount.Data[i] = 0
	}
	return nil
}

func validateOwner(expected ed25519.PublicKey, authority *solana.KeyedAccount) error {
	if !bytes.Equal(expected, authority.Key) {
		return ErrorOwnerMismatch
	}
	if !authority.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}
	return nil
}

func loadAccount(account *solana.KeyedAccount) (*Account, error) {
	if !account.IsOwnedBy(ProgramKey) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var a Account
	if !a.Unmarshal(account.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if !a.IsInitialized() {
		return nil, ErrorUninitializedState
	}
	return &a, nil
}

func loadMint(account *solana.KeyedAccount) (*Mint, error) {
	if !account.IsOwnedBy(ProgramKey) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var m Mint
	if !m.Unmarshal(account.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if !m.IsInitialized {
		return nil, ErrorUninitializedState
	}
	return &m, nil
}

func parseAmount(data []byte) (uint64, error) {
	if len(data) < 1+8 {
		return 0, ErrorInvalidInstruction
	}
	return binary.LittleEndian.Uint64(data[1:]), nil
}

// AssociatedProcessor executes associated token account program instructions.
type AssociatedProcessor struct{}

var _ solana.Processor = AssociatedProcessor{}

func (AssociatedProcessor) ProgramID() ed25519.PublicKey {
	return AssociatedTokenAccountProgramKey
}

func (p AssociatedProcessor) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	idempotent := false
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte{commandCreate}):
		ctx.Log("Create")
	case bytes.Equal(data, []byte{commandCreateIdempotent}):
		ctx.Log("CreateIdempotent")
		idempotent = true
	default:
		return solana.InstructionErrorInvalidInstructionData
	}

	if err := solana.CheckNumAccounts(accounts, 6); err != nil {
		return err
	}

	funder := accounts[0]
	associated := accounts[1]
	wallet := accounts[2]
	mint := accounts[3]

	if !bytes.Equal(accounts[5].Key, ProgramKey) {
		return solana.InstructionErrorIncorrectProgramID
	}

	expected, bump, err := GetAssociatedAccountAndBump(wallet.Key, mint.Key)
	if err != nil {
		return solana.InstructionErrorInvalidSeeds
	}
	if !bytes.Equal(expected, associated.Key) {
		ctx.Log("Error: Associated address does not match seed derivation")
		return solana.InstructionErrorInvalidSeeds
	}

	if idempotent && associated.IsOwnedBy(ProgramKey) {
		existing, err := loadAccount(associated)
		if err != nil {
			return err
		}
		if !bytes.Equal(existing.Owner, wallet.Key) {
			ctx.Log("Error: owner does not match %s", base58.Encode(wallet.Key))
			return ErrorOwnerMismatch
		}
		if !bytes.Equal(existing.Mint, mint.Key) {
			return ErrorMintMismatch
		}
		return nil
	}

	seeds := [][]byte{wallet.Key, ProgramKey, mint.Key, {bump}}
	rent := system.Rent.MinimumBalance(AccountSize)

	if associated.Lamports > 0 {
		if associated.Lamports < rent {
			if err := ctx.Invoke(system.Transfer(funder.Key, associated.Key, rent-associated.Lamports)); err != nil {
				return err
			}
		}
		if err := ctx.InvokeSigned(system.Allocate(associated.Key, AccountSize), seeds); err != nil {
			return err
		}
		if err := ctx.InvokeSigned(system.Assign(associated.Key, ProgramKey), seeds); err != nil {
			return err
		}
	} else {
		if err := ctx.InvokeSigned(system.CreateAccount(funder.Key, associated.Key, ProgramKey, rent, AccountSize), seeds); err != nil {
			return err
		}
	}

	ctx.Log("Initialize the associated token account")
	return ctx.Invoke(InitializeAccount(associated.Key, mint.Key, wallet.Key))
}
