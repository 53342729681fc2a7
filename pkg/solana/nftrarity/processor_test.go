package nftrarity

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/bank"
	"github.com/code-payments/nft-staking/pkg/ledger/memory"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/testutil"
)

type testEnv struct {
	ctx   context.Context
	bank  *bank.Bank
	admin ed25519.PrivateKey
}

func setup(t *testing.T) *testEnv {
	env := &testEnv{
		ctx:   context.Background(),
		bank:  bank.New(memory.New(), bank.WithEnvConfigs(), Processor{}),
		admin: testutil.GenerateSolanaKeypair(t),
	}
	require.NoError(t, env.bank.Airdrop(env.ctx, testutil.PublicKey(env.admin), 10_000_000_000))
	return env
}

func (e *testEnv) submit(t *testing.T, signers []ed25519.PrivateKey, instructions ...solana.Instruction) error {
	txn := solana.NewTransaction(testutil.PublicKey(signers[0]), instructions...)
	txn.SetBlockhash(e.bank.RecentBlockhash(e.ctx))
	require.NoError(t, txn.Sign(signers...))

	_, err := e.bank.Process(e.ctx, txn)
	return err
}

func (e *testEnv) initialize(t *testing.T, admin ed25519.PrivateKey, collection, rarity string, nonce uint64) (ed25519.PublicKey, error) {
	adminKey := testutil.PublicKey(admin)

	address, seed, err := GetRarityInfoAddress(&GetRarityInfoAddressArgs{
		Admin:      adminKey,
		Collection: collection,
		Rarity:     rarity,
		Nonce:      nonce,
	})
	require.NoError(t, err)

	size := uint64(GetRarityInfoAccountSize(0))
	err = e.submit(
		t,
		[]ed25519.PrivateKey{admin},
		system.CreateAccountWithSeed(adminKey, address, adminKey, seed, system.Rent.MinimumBalance(size), size, PROGRAM_ID),
		NewInitializeInstruction(
			&InitializeInstructionAccounts{
				Admin:      adminKey,
				RarityInfo: address,
			},
			&InitializeInstructionArgs{
				Collection: collection,
				Rarity:     rarity,
				Nonce:      nonce,
			},
		),
	)
	return address, err
}

func (e *testEnv) getRarityInfo(t *testing.T, address ed25519.PublicKey) (*RarityInfoAccount, *solana.AccountInfo) {
	info, err := e.bank.GetAccountInfo(e.ctx, address)
	require.NoError(t, err)
	assert.EqualValues(t, PROGRAM_ID, info.Owner)

	var state RarityInfoAccount
	require.NoError(t, state.Unmarshal(info.Data))
	return &state, info
}

func TestProcessor_Initialize(t *testing.T) {
	env := setup(t)

	address, err := env.initialize(t, env.admin, "Foo", "Rare", 7)
	require.NoError(t, err)

	state, _ := env.getRarityInfo(t, address)
	assert.EqualValues(t, testutil.PublicKey(env.admin), state.Admin)
	assert.Equal(t, "Foo", state.CollectionLabel())
	assert.Equal(t, "Rare", state.RarityLabel())
	assert.Empty(t, state.MintList)

	// Initializing twice
	adminKey := testutil.PublicKey(env.admin)
	err = env.submit(t, []ed25519.PrivateKey{env.admin}, NewInitializeInstruction(
		&InitializeInstructionAccounts{Admin: adminKey, RarityInfo: address},
		&InitializeInstructionArgs{Collection: "Foo", Rarity: "Rare", Nonce: 7},
	))
	testutil.AssertInstructionError(t, err, 0, ErrAccountAlreadyInitialized)
}

func TestProcessor_InitializeFailures(t *testing.T) {
	env := setup(t)
	adminKey := testutil.PublicKey(env.admin)

	// Account created for a different nonce
	address, seed, err := GetRarityInfoAddress(&GetRarityInfoAddressArgs{
		Admin:      adminKey,
		Collection: "Foo",
		Rarity:     "Rare",
		Nonce:      7,
	})
	require.NoError(t, err)

	size := uint64(GetRarityInfoAccountSize(0))
	err = env.submit(
		t,
		[]ed25519.PrivateKey{env.admin},
		system.CreateAccountWithSeed(adminKey, address, adminKey, seed, system.Rent.MinimumBalance(size), size, PROGRAM_ID),
		NewInitializeInstruction(
			&InitializeInstructionAccounts{Admin: adminKey, RarityInfo: address},
			&InitializeInstructionArgs{Collection: "Foo", Rarity: "Rare", Nonce: 8},
		),
	)
	testutil.AssertInstructionError(t, err, 1, ErrInvalidAccount)

	_, err = env.bank.GetAccountInfo(env.ctx, address)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	// Labels that don't fit
	_, err = env.initialize(t, env.admin, "a collection name", "Rare", 7)
	testutil.AssertInstructionError(t, err, 1, ErrLabelTooLong)

	_, err = env.initialize(t, env.admin, "Foo", "an extremely rare", 7)
	testutil.AssertInstructionError(t, err, 1, ErrLabelTooLong)
}

func TestProcessor_AppendList(t *testing.T) {
	env := setup(t)
	adminKey := testutil.PublicKey(env.admin)

	address, err := env.initialize(t, env.admin, "Foo", "Rare", 7)
	require.NoError(t, err)

	mints := testutil.GenerateSolanaKeys(t, 5)
	appendList := func(signer ed25519.PrivateKey, mints ...ed25519.PublicKey) error {
		return env.submit(t, []ed25519.PrivateKey{signer}, NewAppendListInstruction(
			&AppendListInstructionAccounts{
				Admin:      testutil.PublicKey(signer),
				RarityInfo: address,
			},
			&AppendListInstructionArgs{
				MintList: mints,
			},
		))
	}

	require.NoError(t, appendList(env.admin, mints[:3]...))

	state, info := env.getRarityInfo(t, address)
	assert.Equal(t, mints[:3], state.MintList)
	assert.Len(t, info.Data, GetRarityInfoAccountSize(3))
	assert.EqualValues(t, system.Rent.MinimumBalance(uint64(GetRarityInfoAccountSize(3))), info.Lamports)

	// Duplicates are kept
	require.NoError(t, appendList(env.admin, mints[2], mints[3]))

	state, info = env.getRarityInfo(t, address)
	assert.Equal(t, []ed25519.PublicKey{mints[0], mints[1], mints[2], mints[2], mints[3]}, state.MintList)
	assert.Len(t, info.Data, GetRarityInfoAccountSize(5))
	assert.True(t, state.Contains(mints[3]))
	assert.False(t, state.Contains(mints[4]))

	// Only the admin can append
	other := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, env.bank.Airdrop(env.ctx, testutil.PublicKey(other), 1_000_000_000))
	testutil.AssertInstructionError(t, appendList(other, mints[4]), 0, ErrInvalidAdmin)

	state, _ = env.getRarityInfo(t, address)
	assert.Equal(t, 5, state.Len())
	assert.EqualValues(t, adminKey, state.Admin)
}

func TestProcessor_UpdateAdmin(t *testing.T) {
	env := setup(t)
	adminKey := testutil.PublicKey(env.admin)

	address, err := env.initialize(t, env.admin, "Foo", "Rare", 7)
	require.NoError(t, err)

	newAdmin := testutil.GenerateSolanaKeypair(t)
	newAdminKey := testutil.PublicKey(newAdmin)
	require.NoError(t, env.bank.Airdrop(env.ctx, newAdminKey, 1_000_000_000))

	updateAdmin := func(signer ed25519.PrivateKey, to ed25519.PublicKey) error {
		return env.submit(t, []ed25519.PrivateKey{signer}, NewUpdateAdminInstruction(&UpdateAdminInstructionAccounts{
			Admin:      testutil.PublicKey(signer),
			NewAdmin:   to,
			RarityInfo: address,
		}))
	}

	testutil.AssertInstructionError(t, updateAdmin(newAdmin, newAdminKey), 0, ErrInvalidAdmin)

	require.NoError(t, updateAdmin(env.admin, newAdminKey))
	state, _ := env.getRarityInfo(t, address)
	assert.EqualValues(t, newAdminKey, state.Admin)

	// The previous admin no longer has authority
	testutil.AssertInstructionError(t, updateAdmin(env.admin, adminKey), 0, ErrInvalidAdmin)

	mint := testutil.GenerateSolanaKeys(t, 1)[0]
	err = env.submit(t, []ed25519.PrivateKey{newAdmin}, NewAppendListInstruction(
		&AppendListInstructionAccounts{Admin: newAdminKey, RarityInfo: address},
		&AppendListInstructionArgs{MintList: []ed25519.PublicKey{mint}},
	))
	require.NoError(t, err)

	state, _ = env.getRarityInfo(t, address)
	assert.True(t, state.Contains(mint))
}

func TestInstructionArgs(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	ixn := NewInitializeInstruction(
		&InitializeInstructionAccounts{Admin: keys[0], RarityInfo: keys[1]},
		&InitializeInstructionArgs{Collection: "Foo", Rarity: "Rare", Nonce: 7},
	)
	args, err := InitializeInstructionArgsFromBinary(ixn.Data)
	require.NoError(t, err)
	assert.Equal(t, &InitializeInstructionArgs{Collection: "Foo", Rarity: "Rare", Nonce: 7}, args)

	for i := 0; i < len(ixn.Data); i++ {
		_, err = InitializeInstructionArgsFromBinary(ixn.Data[:i])
		assert.Equal(t, ErrInvalidInstruction, err)
	}

	ixn = NewAppendListInstruction(
		&AppendListInstructionAccounts{Admin: keys[0], RarityInfo: keys[1]},
		&AppendListInstructionArgs{MintList: keys},
	)
	_, err = AppendListInstructionArgsFromBinary(ixn.Data[:len(ixn.Data)-1])
	assert.Equal(t, ErrInvalidInstruction, err)
}
