package system

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/solana"
)

type testContext struct {
	logs []string
}

func (c *testContext) Context() context.Context {
	return context.Background()
}

func (c *testContext) ProgramID() ed25519.PublicKey {
	return ProgramKey[:]
}

func (c *testContext) Invoke(solana.Instruction) error {
	return errors.New("unsupported")
}

func (c *testContext) InvokeSigned(solana.Instruction, ...[][]byte) error {
	return errors.New("unsupported")
}

func (c *testContext) Log(format string, args ...interface{}) {
	c.logs = append(c.logs, format)
}

func TestProcessor_CreateAccount(t *testing.T) {
	keys := generateKeys(t, 3)
	funder := newKeyedAccount(keys[0], 10_000_000, true)
	account := newKeyedAccount(keys[1], 0, true)

	size := uint64(100)
	lamports := Rent.MinimumBalance(size)

	ixn := CreateAccount(keys[0], keys[1], keys[2], lamports, size)
	require.NoError(t, process(funder, account, ixn))

	assert.EqualValues(t, 10_000_000-lamports, funder.Lamports)
	assert.EqualValues(t, lamports, account.Lamports)
	assert.Equal(t, keys[2], account.Owner)
	assert.Len(t, account.Data, int(size))

	// Second creation fails as the account is in use
	other := newKeyedAccount(keys[0], 10_000_000, true)
	err := process(other, account, ixn)
	assert.Equal(t, ErrAccountAlreadyInUse, err)
}

func TestProcessor_CreateAccountFailures(t *testing.T) {
	keys := generateKeys(t, 3)

	size := uint64(100)
	lamports := Rent.MinimumBalance(size)

	// Not rent exempt
	funder := newKeyedAccount(keys[0], 10_000_000, true)
	account := newKeyedAccount(keys[1], 0, true)
	err := process(funder, account, CreateAccount(keys[0], keys[1], keys[2], lamports-1, size))
	assert.Equal(t, ErrInsufficientFundsForRent, err)

	// New account didn't sign
	account = newKeyedAccount(keys[1], 0, false)
	err = process(funder, account, CreateAccount(keys[0], keys[1], keys[2], lamports, size))
	assert.Equal(t, solana.InstructionErrorMissingRequiredSignature, err)

	// Insufficient funds
	funder = newKeyedAccount(keys[0], lamports-1, true)
	account = newKeyedAccount(keys[1], 0, true)
	err = process(funder, account, CreateAccount(keys[0], keys[1], keys[2], lamports, size))
	assert.Equal(t, ErrResultWithNegativeLamports, err)

	// Too large
	funder = newKeyedAccount(keys[0], 1<<62, true)
	account = newKeyedAccount(keys[1], 0, true)
	err = process(funder, account, CreateAccount(keys[0], keys[1], keys[2], Rent.MinimumBalance(MaxPermittedDataLength+1), MaxPermittedDataLength+1))
	assert.Equal(t, ErrInvalidAccountDataLength, err)
}

func TestProcessor_CreateAccountWithSeed(t *testing.T) {
	keys := generateKeys(t, 3)
	base, owner := keys[0], keys[1]

	address, err := solana.CreateWithSeed(base, "rarity", owner)
	require.NoError(t, err)

	funder := newKeyedAccount(base, 10_000_000, true)
	account := newKeyedAccount(address, 0, false)

	lamports := Rent.MinimumBalance(64)
	ixn := CreateAccountWithSeed(base, address, base, "rarity", lamports, 64, owner)
	require.NoError(t, process(funder, account, ixn))
	assert.Equal(t, owner, account.Owner)
	assert.Len(t, account.Data, 64)
	assert.EqualValues(t, lamports, account.Lamports)

	// Address derived from a different seed
	wrong := newKeyedAccount(keys[2], 0, false)
	ixn = CreateAccountWithSeed(base, keys[2], base, "rarity", lamports, 64, owner)
	assert.Equal(t, ErrAddressWithSeedMismatch, process(funder, wrong, ixn))

	// Base didn't sign
	funder = newKeyedAccount(base, 10_000_000, false)
	account = newKeyedAccount(address, 0, false)
	ixn = CreateAccountWithSeed(base, address, base, "rarity", lamports, 64, owner)
	assert.Equal(t, solana.InstructionErrorMissingRequiredSignature, process(funder, account, ixn))
}

func TestProcessor_Transfer(t *testing.T) {
	keys := generateKeys(t, 2)
	from := newKeyedAccount(keys[0], 100, true)
	to := newKeyedAccount(keys[1], 5, false)

	require.NoError(t, process(from, to, Transfer(keys[0], keys[1], 60)))
	assert.EqualValues(t, 40, from.Lamports)
	assert.EqualValues(t, 65, to.Lamports)

	assert.Equal(t, ErrResultWithNegativeLamports, process(from, to, Transfer(keys[0], keys[1], 41)))

	from.IsSigner = false
	assert.Equal(t, solana.InstructionErrorMissingRequiredSignature, process(from, to, Transfer(keys[0], keys[1], 1)))

	from.IsSigner = true
	from.Data = []byte{1}
	assert.Equal(t, solana.InstructionErrorInvalidArgument, process(from, to, Transfer(keys[0], keys[1], 1)))
}

func TestProcessor_AllocateAndAssign(t *testing.T) {
	keys := generateKeys(t, 2)
	account := newKeyedAccount(keys[0], 0, true)

	var p Processor
	ctx := &testContext{}

	ixn := Allocate(keys[0], 32)
	require.NoError(t, p.Process(ctx, []*solana.KeyedAccount{account}, ixn.Data))
	assert.Len(t, account.Data, 32)

	assert.Equal(t, ErrAccountAlreadyInUse, p.Process(ctx, []*solana.KeyedAccount{account}, ixn.Data))

	ixn = Assign(keys[0], keys[1])
	require.NoError(t, p.Process(ctx, []*solana.KeyedAccount{account}, ixn.Data))
	assert.Equal(t, keys[1], account.Owner)

	// Already owned by the target
	require.NoError(t, p.Process(ctx, []*solana.KeyedAccount{account}, ixn.Data))

	// No longer owned by the system program
	ixn = Assign(keys[0], keys[0])
	assert.Equal(t, solana.InstructionErrorModifiedProgramID, p.Process(ctx, []*solana.KeyedAccount{account}, ixn.Data))
}

func TestProcessor_InvalidData(t *testing.T) {
	keys := generateKeys(t, 2)
	from := newKeyedAccount(keys[0], 100, true)
	to := newKeyedAccount(keys[1], 5, false)

	var p Processor
	ctx := &testContext{}
	assert.Equal(t, solana.InstructionErrorInvalidInstructionData, p.Process(ctx, nil, []byte{1}))
	assert.Equal(t, solana.InstructionErrorInvalidInstructionData, p.Process(ctx, nil, []byte{99, 0, 0, 0}))
	assert.Equal(t, solana.InstructionErrorNotEnoughAccountKeys, p.Process(ctx, []*solana.KeyedAccount{from}, Transfer(keys[0], keys[1], 1).Data))

	data := Transfer(keys[0], keys[1], 1).Data
	assert.Equal(t, solana.InstructionErrorInvalidInstructionData, p.Process(ctx, []*solana.KeyedAccount{from, to}, data[:8]))
}

func process(first, second *solana.KeyedAccount, ixn solana.Instruction) error {
	accounts := []*solana.KeyedAccount{first, second}
	if len(ixn.Accounts) > 2 {
		accounts = append(accounts, first)
	}

	var p Processor
	return p.Process(&testContext{}, accounts, ixn.Data)
}

func newKeyedAccount(key ed25519.PublicKey, lamports uint64, isSigner bool) *solana.KeyedAccount {
	return &solana.KeyedAccount{
		Key:        key,
		IsSigner:   isSigner,
		IsWritable: true,
		AccountInfo: &solana.AccountInfo{
			Owner:    ProgramKey[:],
			Lamports: lamports,
		},
	}
}
