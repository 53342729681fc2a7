package nftstaking

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/bank"
	"github.com/code-payments/nft-staking/pkg/ledger/memory"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/solana/token"
	"github.com/code-payments/nft-staking/pkg/testutil"
)

const proveTokenSupply = 1_000

type testEnv struct {
	ctx  context.Context
	bank *bank.Bank

	admin                  ed25519.PrivateKey
	proveTokenMint         ed25519.PublicKey
	adminProveTokenAccount ed25519.PublicKey

	rarityInfo          ed25519.PublicKey
	poolInfo            ed25519.PublicKey
	proveTokenAuthority ed25519.PublicKey
	proveTokenVault     ed25519.PublicKey

	eligible []ed25519.PublicKey
}

type testUser struct {
	key                   ed25519.PrivateKey
	nftMint               ed25519.PublicKey
	nftAccount            ed25519.PublicKey
	userProveTokenAccount ed25519.PublicKey
}

func setup(t *testing.T, numEligible int) *testEnv {
	env := &testEnv{
		ctx:   context.Background(),
		bank:  bank.New(memory.New(), bank.WithEnvConfigs(), nftrarity.Processor{}, Processor{}),
		admin: testutil.GenerateSolanaKeypair(t),
	}
	adminKey := testutil.PublicKey(env.admin)
	require.NoError(t, env.bank.Airdrop(env.ctx, adminKey, 100_000_000_000))

	env.proveTokenMint = env.createMint(t)
	env.adminProveTokenAccount = env.mintTo(t, env.proveTokenMint, adminKey, proveTokenSupply)

	for i := 0; i < numEligible; i++ {
		env.eligible = append(env.eligible, env.createMint(t))
	}
	env.rarityInfo = env.createAllowList(t, "Foo", "Rare", 7, env.eligible)

	var err error
	env.poolInfo, _, err = GetPoolInfoAddress(&GetPoolInfoAddressArgs{RarityInfo: env.rarityInfo})
	require.NoError(t, err)
	env.proveTokenAuthority, _, err = GetProveTokenAuthorityAddress(&GetProveTokenAuthorityAddressArgs{PoolInfo: env.poolInfo})
	require.NoError(t, err)
	env.proveTokenVault, err = GetProveTokenVaultAddress(&GetProveTokenVaultAddressArgs{
		ProveTokenAuthority: env.proveTokenAuthority,
		ProveTokenMint:      env.proveTokenMint,
	})
	require.NoError(t, err)

	return env
}

func (e *testEnv) submit(t *testing.T, signers []ed25519.PrivateKey, instructions ...solana.Instruction) error {
	txn := solana.NewTransaction(testutil.PublicKey(signers[0]), instructions...)
	txn.SetBlockhash(e.bank.RecentBlockhash(e.ctx))
	require.NoError(t, txn.Sign(signers...))

	_, err := e.bank.Process(e.ctx, txn)
	return err
}

func (e *testEnv) createMint(t *testing.T) ed25519.PublicKey {
	adminKey := testutil.PublicKey(e.admin)
	mint := testutil.GenerateSolanaKeypair(t)
	mintKey := testutil.PublicKey(mint)

	require.NoError(t, e.submit(
		t,
		[]ed25519.PrivateKey{e.admin, mint},
		system.CreateAccount(adminKey, mintKey, token.ProgramKey, system.Rent.MinimumBalance(token.MintSize), token.MintSize),
		token.InitializeMint(mintKey, adminKey, nil, 0),
	))
	return mintKey
}

func (e *testEnv) mintTo(t *testing.T, mint, owner ed25519.PublicKey, amount uint64) ed25519.PublicKey {
	adminKey := testutil.PublicKey(e.admin)

	create, ata, err := token.CreateAssociatedTokenAccountIdempotent(adminKey, owner, mint)
	require.NoError(t, err)

	require.NoError(t, e.submit(
		t,
		[]ed25519.PrivateKey{e.admin},
		create,
		token.MintTo(mint, ata, adminKey, amount),
	))
	return ata
}

func (e *testEnv) createAllowList(t *testing.T, collection, rarity string, nonce uint64, mints []ed25519.PublicKey) ed25519.PublicKey {
	adminKey := testutil.PublicKey(e.admin)

	address, seed, err := nftrarity.GetRarityInfoAddress(&nftrarity.GetRarityInfoAddressArgs{
		Admin:      adminKey,
		Collection: collection,
		Rarity:     rarity,
		Nonce:      nonce,
	})
	require.NoError(t, err)

	size := uint64(nftrarity.GetRarityInfoAccountSize(0))
	require.NoError(t, e.submit(
		t,
		[]ed25519.PrivateKey{e.admin},
		system.CreateAccountWithSeed(adminKey, address, adminKey, seed, system.Rent.MinimumBalance(size), size, nftrarity.PROGRAM_ID),
		nftrarity.NewInitializeInstruction(
			&nftrarity.InitializeInstructionAccounts{Admin: adminKey, RarityInfo: address},
			&nftrarity.InitializeInstructionArgs{Collection: collection, Rarity: rarity, Nonce: nonce},
		),
		nftrarity.NewAppendListInstruction(
			&nftrarity.AppendListInstructionAccounts{Admin: adminKey, RarityInfo: address},
			&nftrarity.AppendListInstructionArgs{MintList: mints},
		),
	))
	return address
}

func (e *testEnv) initializeAccounts() *InitializeInstructionAccounts {
	return &InitializeInstructionAccounts{
		Admin:                  testutil.PublicKey(e.admin),
		ProveTokenMint:         e.proveTokenMint,
		AdminProveTokenAccount: e.adminProveTokenAccount,
		ProveTokenAuthority:    e.proveTokenAuthority,
		ProveTokenVault:        e.proveTokenVault,
		PoolInfo:               e.poolInfo,
		RarityInfo:             e.rarityInfo,
		RarityProgram:          nftrarity.PROGRAM_ID,
	}
}

func (e *testEnv) initialize(t *testing.T, accounts *InitializeInstructionAccounts) error {
	adminKey := testutil.PublicKey(e.admin)

	createVault, _, err := token.CreateAssociatedTokenAccountIdempotent(adminKey, e.proveTokenAuthority, e.proveTokenMint)
	require.NoError(t, err)

	return e.submit(
		t,
		[]ed25519.PrivateKey{e.admin},
		createVault,
		NewInitializeInstruction(accounts, &InitializeInstructionArgs{
			Collection: "Foo",
			Rarity:     "Rare",
			Nonce:      7,
		}),
	)
}

func (e *testEnv) newUser(t *testing.T, nftMint ed25519.PublicKey) *testUser {
	user := &testUser{
		key:     testutil.GenerateSolanaKeypair(t),
		nftMint: nftMint,
	}
	userKey := testutil.PublicKey(user.key)
	require.NoError(t, e.bank.Airdrop(e.ctx, userKey, 10_000_000_000))

	user.nftAccount = e.mintTo(t, nftMint, userKey, 1)
	user.userProveTokenAccount = e.mintTo(t, e.proveTokenMint, userKey, 0)
	return user
}

func (e *testEnv) stakeAccounts(t *testing.T, user *testUser) *StakeInstructionAccounts {
	vault, _, err := GetNftVaultAddress(&GetNftVaultAddressArgs{NftMint: user.nftMint, PoolInfo: e.poolInfo})
	require.NoError(t, err)
	vaultAta, err := GetNftVaultAtaAddress(&GetNftVaultAtaAddressArgs{NftVault: vault, NftMint: user.nftMint})
	require.NoError(t, err)

	return &StakeInstructionAccounts{
		User:                  testutil.PublicKey(user.key),
		PoolInfo:              e.poolInfo,
		ProveTokenMint:        e.proveTokenMint,
		NftMint:               user.nftMint,
		RarityInfo:            e.rarityInfo,
		UserNftAccount:        user.nftAccount,
		NftVaultAta:           vaultAta,
		UserProveTokenAccount: user.userProveTokenAccount,
		ProveTokenAuthority:   e.proveTokenAuthority,
		ProveTokenVault:       e.proveTokenVault,
		NftVaultAccount:       vault,
	}
}

// stake submits the vault escrow account creation followed by the stake
// instruction, which is at index 1.
func (e *testEnv) stake(t *testing.T, user *testUser, accounts *StakeInstructionAccounts) error {
	userKey := testutil.PublicKey(user.key)

	createVaultAta, _, err := token.CreateAssociatedTokenAccountIdempotent(userKey, accounts.NftVaultAccount, accounts.NftMint)
	require.NoError(t, err)

	return e.submit(t, []ed25519.PrivateKey{user.key}, createVaultAta, NewStakeInstruction(accounts))
}

func (e *testEnv) unstake(t *testing.T, user *testUser, accounts *StakeInstructionAccounts) error {
	return e.submit(t, []ed25519.PrivateKey{user.key}, NewUnstakeInstruction(accounts))
}

func (e *testEnv) getPool(t *testing.T) *PoolInfoAccount {
	info, err := e.bank.GetAccountInfo(e.ctx, e.poolInfo)
	require.NoError(t, err)
	assert.EqualValues(t, PROGRAM_ID, info.Owner)

	var state PoolInfoAccount
	require.NoError(t, state.Unmarshal(info.Data))
	return &state
}

func (e *testEnv) balance(t *testing.T, account ed25519.PublicKey) uint64 {
	info, err := e.bank.GetAccountInfo(e.ctx, account)
	if err == solana.ErrNoAccountInfo {
		return 0
	}
	require.NoError(t, err)

	var state token.Account
	require.True(t, state.Unmarshal(info.Data))
	return state.Amount
}

func (e *testEnv) lamports(t *testing.T, account ed25519.PublicKey) uint64 {
	info, err := e.bank.GetAccountInfo(e.ctx, account)
	if err == solana.ErrNoAccountInfo {
		return 0
	}
	require.NoError(t, err)
	return info.Lamports
}

func (e *testEnv) assertNotExists(t *testing.T, account ed25519.PublicKey) {
	_, err := e.bank.GetAccountInfo(e.ctx, account)
	assert.Equal(t, solana.ErrNoAccountInfo, err)
}

func TestProcessor_Initialize(t *testing.T) {
	env := setup(t, 3)
	adminKey := testutil.PublicKey(env.admin)

	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	pool := env.getPool(t)
	assert.EqualValues(t, adminKey, pool.Admin)
	assert.EqualValues(t, env.proveTokenAuthority, pool.ProveTokenAuthority)
	assert.EqualValues(t, env.proveTokenVault, pool.ProveTokenVault)
	assert.EqualValues(t, env.proveTokenMint, pool.ProveTokenMint)
	assert.EqualValues(t, env.rarityInfo, pool.RarityInfo)
	assert.EqualValues(t, 0, pool.TotalLocked)

	// The vault holds one prove token per eligible asset
	assert.EqualValues(t, 3, env.balance(t, env.proveTokenVault))
	assert.EqualValues(t, proveTokenSupply-3, env.balance(t, env.adminProveTokenAccount))

	// There's only one pool per allow list
	testutil.AssertInstructionError(t, env.initialize(t, env.initializeAccounts()), 1, ErrAccountAlreadyInitialized)
	assert.EqualValues(t, 3, env.balance(t, env.proveTokenVault))
}

func TestProcessor_InitializeFailures(t *testing.T) {
	env := setup(t, 2)
	other := testutil.GenerateSolanaKeys(t, 1)[0]

	for _, tc := range []struct {
		name     string
		modify   func(*InitializeInstructionAccounts)
		expected error
	}{
		{
			name:     "authority",
			modify:   func(a *InitializeInstructionAccounts) { a.ProveTokenAuthority = other },
			expected: ErrInvalidAuthority,
		},
		{
			name:     "pool",
			modify:   func(a *InitializeInstructionAccounts) { a.PoolInfo = other },
			expected: ErrInvalidPoolAccount,
		},
		{
			name:     "rarity program",
			modify:   func(a *InitializeInstructionAccounts) { a.RarityProgram = other },
			expected: ErrInvalidProgramAccount,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			accounts := env.initializeAccounts()
			tc.modify(accounts)
			testutil.AssertInstructionError(t, env.initialize(t, accounts), 1, tc.expected)
		})
	}

	// Vault that isn't the associated account of the authority
	accounts := env.initializeAccounts()
	accounts.ProveTokenVault = env.adminProveTokenAccount
	err := env.submit(t, []ed25519.PrivateKey{env.admin}, NewInitializeInstruction(accounts, &InitializeInstructionArgs{
		Collection: "Foo",
		Rarity:     "Rare",
		Nonce:      7,
	}))
	testutil.AssertInstructionError(t, err, 0, ErrInvalidAssociatedHoldingAccount)

	// The vault must exist before the pool is initialized
	err = env.submit(t, []ed25519.PrivateKey{env.admin}, NewInitializeInstruction(env.initializeAccounts(), &InitializeInstructionArgs{
		Collection: "Foo",
		Rarity:     "Rare",
		Nonce:      8,
	}))
	testutil.AssertInstructionError(t, err, 0, ErrAccountNotInitialized)

	// Allow list derived from different arguments
	createVault, _, err := token.CreateAssociatedTokenAccountIdempotent(testutil.PublicKey(env.admin), env.proveTokenAuthority, env.proveTokenMint)
	require.NoError(t, err)
	err = env.submit(t, []ed25519.PrivateKey{env.admin}, createVault, NewInitializeInstruction(env.initializeAccounts(), &InitializeInstructionArgs{
		Collection: "Foo",
		Rarity:     "Rare",
		Nonce:      8,
	}))
	testutil.AssertInstructionError(t, err, 1, ErrInvalidAllowListAccount)

	env.assertNotExists(t, env.poolInfo)
	assert.EqualValues(t, proveTokenSupply, env.balance(t, env.adminProveTokenAccount))
}

func TestProcessor_InitializeInsufficientReserve(t *testing.T) {
	env := setup(t, 2)
	adminKey := testutil.PublicKey(env.admin)

	// Move all but one prove token out of the admin's account
	sink := env.mintTo(t, env.proveTokenMint, testutil.GenerateSolanaKeys(t, 1)[0], 0)
	require.NoError(t, env.submit(t, []ed25519.PrivateKey{env.admin}, token.Transfer(env.adminProveTokenAccount, sink, adminKey, proveTokenSupply-1)))

	testutil.AssertInstructionError(t, env.initialize(t, env.initializeAccounts()), 1, token.ErrorInsufficientFunds)
	env.assertNotExists(t, env.poolInfo)
}

func TestProcessor_UpdateAdmin(t *testing.T) {
	env := setup(t, 1)
	adminKey := testutil.PublicKey(env.admin)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	newAdmin := testutil.GenerateSolanaKeypair(t)
	newAdminKey := testutil.PublicKey(newAdmin)
	require.NoError(t, env.bank.Airdrop(env.ctx, newAdminKey, 1_000_000_000))

	updateAdmin := func(signer ed25519.PrivateKey, to ed25519.PublicKey) error {
		return env.submit(t, []ed25519.PrivateKey{signer}, NewUpdateAdminInstruction(&UpdateAdminInstructionAccounts{
			Admin:    testutil.PublicKey(signer),
			NewAdmin: to,
			PoolInfo: env.poolInfo,
		}))
	}

	testutil.AssertInstructionError(t, updateAdmin(newAdmin, newAdminKey), 0, ErrInsufficientAuthorization)

	before := env.getPool(t)
	require.NoError(t, updateAdmin(env.admin, newAdminKey))

	after := env.getPool(t)
	assert.EqualValues(t, newAdminKey, after.Admin)
	after.Admin = before.Admin
	assert.Equal(t, before, after)

	// The previous admin no longer has authority
	testutil.AssertInstructionError(t, updateAdmin(env.admin, adminKey), 0, ErrInsufficientAuthorization)
	require.NoError(t, updateAdmin(newAdmin, adminKey))
	assert.EqualValues(t, adminKey, env.getPool(t).Admin)
}

func TestProcessor_StakeUnstake(t *testing.T) {
	env := setup(t, 2)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	user := env.newUser(t, env.eligible[0])
	userKey := testutil.PublicKey(user.key)
	accounts := env.stakeAccounts(t, user)

	lamportsBefore := env.lamports(t, userKey)

	require.NoError(t, env.stake(t, user, accounts))

	assert.EqualValues(t, 0, env.balance(t, user.nftAccount))
	assert.EqualValues(t, 1, env.balance(t, accounts.NftVaultAta))
	assert.EqualValues(t, 1, env.balance(t, user.userProveTokenAccount))
	assert.EqualValues(t, 1, env.balance(t, env.proveTokenVault))
	assert.EqualValues(t, 1, env.getPool(t).TotalLocked)

	info, err := env.bank.GetAccountInfo(env.ctx, accounts.NftVaultAccount)
	require.NoError(t, err)
	assert.EqualValues(t, PROGRAM_ID, info.Owner)

	var vault NftVaultAccount
	require.NoError(t, vault.Unmarshal(info.Data))
	assert.EqualValues(t, userKey, vault.User)
	assert.EqualValues(t, env.poolInfo, vault.PoolInfo)
	assert.EqualValues(t, user.nftMint, vault.NftMint)

	// Staking the same asset again
	testutil.AssertInstructionError(t, env.stake(t, user, accounts), 1, ErrAccountAlreadyInitialized)

	require.NoError(t, env.unstake(t, user, accounts))

	assert.EqualValues(t, 1, env.balance(t, user.nftAccount))
	assert.EqualValues(t, 0, env.balance(t, user.userProveTokenAccount))
	assert.EqualValues(t, 2, env.balance(t, env.proveTokenVault))
	assert.EqualValues(t, 0, env.getPool(t).TotalLocked)
	assert.Equal(t, lamportsBefore, env.lamports(t, userKey))
	env.assertNotExists(t, accounts.NftVaultAccount)
	env.assertNotExists(t, accounts.NftVaultAta)

	// Unstaking twice
	testutil.AssertInstructionError(t, env.unstake(t, user, accounts), 0, ErrAccountNotInitialized)
	assert.EqualValues(t, 1, env.balance(t, user.nftAccount))
	assert.EqualValues(t, 2, env.balance(t, env.proveTokenVault))
	assert.EqualValues(t, 0, env.getPool(t).TotalLocked)

	// The asset can be staked again
	require.NoError(t, env.stake(t, user, accounts))
	assert.EqualValues(t, 1, env.getPool(t).TotalLocked)
}

func TestProcessor_StakeNotEligible(t *testing.T) {
	env := setup(t, 2)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	user := env.newUser(t, env.createMint(t))
	accounts := env.stakeAccounts(t, user)

	testutil.AssertInstructionError(t, env.stake(t, user, accounts), 1, ErrAssetNotEligible)

	assert.EqualValues(t, 1, env.balance(t, user.nftAccount))
	assert.EqualValues(t, 0, env.balance(t, user.userProveTokenAccount))
	assert.EqualValues(t, 2, env.balance(t, env.proveTokenVault))
	assert.EqualValues(t, 0, env.getPool(t).TotalLocked)
	env.assertNotExists(t, accounts.NftVaultAccount)
	env.assertNotExists(t, accounts.NftVaultAta)
}

func TestProcessor_StakeMany(t *testing.T) {
	const n = 4

	env := setup(t, n+1)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	for i := 0; i < n; i++ {
		user := env.newUser(t, env.eligible[i])
		require.NoError(t, env.stake(t, user, env.stakeAccounts(t, user)))
		assert.EqualValues(t, 1, env.balance(t, user.userProveTokenAccount))
	}

	assert.EqualValues(t, n, env.getPool(t).TotalLocked)
	assert.EqualValues(t, 1, env.balance(t, env.proveTokenVault))
}

func TestProcessor_InvalidAuthority(t *testing.T) {
	env := setup(t, 1)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	user := env.newUser(t, env.eligible[0])
	accounts := env.stakeAccounts(t, user)

	// An authority derived with a different label
	wrongAuthority, _, err := solana.FindProgramAddressAndBump(PROGRAM_ID, env.poolInfo, nftVaultPrefix)
	require.NoError(t, err)

	bad := *accounts
	bad.ProveTokenAuthority = wrongAuthority
	testutil.AssertInstructionError(t, env.stake(t, user, &bad), 1, ErrInvalidAuthority)

	require.NoError(t, env.stake(t, user, accounts))

	testutil.AssertInstructionError(t, env.unstake(t, user, &bad), 0, ErrInvalidAuthority)

	require.NoError(t, env.unstake(t, user, accounts))
	assert.EqualValues(t, 0, env.getPool(t).TotalLocked)
}

func TestProcessor_StakeFailures(t *testing.T) {
	env := setup(t, 2)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	user := env.newUser(t, env.eligible[0])
	other := env.newUser(t, env.eligible[1])

	// Same collection and rarity, different nonce
	otherAllowList := env.createAllowList(t, "Foo", "Rare", 9, env.eligible)

	valid := env.stakeAccounts(t, user)
	createVaultAta, _, err := token.CreateAssociatedTokenAccountIdempotent(testutil.PublicKey(user.key), valid.NftVaultAccount, valid.NftMint)
	require.NoError(t, err)
	require.NoError(t, env.submit(t, []ed25519.PrivateKey{user.key}, createVaultAta))

	for _, tc := range []struct {
		name     string
		modify   func(*StakeInstructionAccounts)
		expected error
	}{
		{
			name:     "allow list not referenced by the pool",
			modify:   func(a *StakeInstructionAccounts) { a.RarityInfo = otherAllowList },
			expected: ErrInvalidAllowListAccount,
		},
		{
			name:     "allow list that isn't one",
			modify:   func(a *StakeInstructionAccounts) { a.RarityInfo = env.eligible[1] },
			expected: ErrInvalidAllowListAccount,
		},
		{
			name:     "prove token mint",
			modify:   func(a *StakeInstructionAccounts) { a.ProveTokenMint = env.eligible[1] },
			expected: ErrInvalidMint,
		},
		{
			name:     "user nft account owned by someone else",
			modify:   func(a *StakeInstructionAccounts) { a.UserNftAccount = other.nftAccount },
			expected: ErrInvalidAssociatedHoldingAccount,
		},
		{
			name:     "prove token vault",
			modify:   func(a *StakeInstructionAccounts) { a.ProveTokenVault = env.adminProveTokenAccount },
			expected: ErrInvalidAssociatedHoldingAccount,
		},
		{
			name:     "vault account",
			modify:   func(a *StakeInstructionAccounts) { a.NftVaultAccount = testutil.PublicKey(other.key) },
			expected: ErrInvalidAssociatedHoldingAccount,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			accounts := env.stakeAccounts(t, user)
			tc.modify(accounts)
			err := env.submit(t, []ed25519.PrivateKey{user.key}, NewStakeInstruction(accounts))
			testutil.AssertInstructionError(t, err, 0, tc.expected)
		})
	}

	assert.EqualValues(t, 0, env.getPool(t).TotalLocked)
	assert.EqualValues(t, 1, env.balance(t, user.nftAccount))
}

func TestProcessor_UnstakeByOtherUser(t *testing.T) {
	env := setup(t, 1)
	require.NoError(t, env.initialize(t, env.initializeAccounts()))

	staker := env.newUser(t, env.eligible[0])
	accounts := env.stakeAccounts(t, staker)
	require.NoError(t, env.stake(t, staker, accounts))

	// A user holding prove tokens and an empty account for the asset
	thief := &testUser{
		key:     testutil.GenerateSolanaKeypair(t),
		nftMint: staker.nftMint,
	}
	thiefKey := testutil.PublicKey(thief.key)
	require.NoError(t, env.bank.Airdrop(env.ctx, thiefKey, 10_000_000_000))
	thief.nftAccount = env.mintTo(t, staker.nftMint, thiefKey, 0)
	thief.userProveTokenAccount = env.mintTo(t, env.proveTokenMint, thiefKey, 1)

	testutil.AssertInstructionError(t, env.unstake(t, thief, env.stakeAccounts(t, thief)), 0, ErrInsufficientAuthorization)

	assert.EqualValues(t, 1, env.balance(t, accounts.NftVaultAta))
	assert.EqualValues(t, 0, env.balance(t, thief.nftAccount))
	assert.EqualValues(t, 1, env.getPool(t).TotalLocked)

	require.NoError(t, env.unstake(t, staker, accounts))
}

func TestProcessor_InvalidInstruction(t *testing.T) {
	env := setup(t, 1)
	adminKey := testutil.PublicKey(env.admin)

	err := env.submit(t, []ed25519.PrivateKey{env.admin}, solana.NewInstruction(
		PROGRAM_ID,
		[]byte{1, 2, 3, 4, 5, 6, 7, 8},
		solana.NewAccountMeta(adminKey, true),
	))
	testutil.AssertInstructionError(t, err, 0, ErrInvalidInstruction)

	require.NoError(t, env.initialize(t, env.initializeAccounts()))
	user := env.newUser(t, env.eligible[0])

	ixn := NewStakeInstruction(env.stakeAccounts(t, user))
	ixn.Accounts = ixn.Accounts[:StakeInstructionAccountsCount-1]
	err = env.submit(t, []ed25519.PrivateKey{user.key}, ixn)
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorNotEnoughAccountKeys)
	assert.EqualValues(t, 1, env.balance(t, user.nftAccount))
}
