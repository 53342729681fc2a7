package bank

import (
	"context"
	"crypto/ed25519"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/ledger"
	"github.com/code-payments/nft-staking/pkg/ledger/memory"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/solana/token"
	"github.com/code-payments/nft-staking/pkg/testutil"
)

const (
	testCommandSpend byte = iota
	testCommandWrite
	testCommandTransfer
	testCommandTransferSigned
	testCommandRecurse
	testCommandBlock
)

var testVaultSeed = []byte("vault")

// testProgram exercises the invocation rules enforced by the bank.
type testProgram struct {
	id ed25519.PublicKey

	started chan struct{}
	release chan struct{}
}

func (p *testProgram) ProgramID() ed25519.PublicKey {
	return p.id
}

func (p *testProgram) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	switch data[0] {
	case testCommandSpend:
		accounts[0].Lamports--
		accounts[1].Lamports++
		return nil
	case testCommandWrite:
		accounts[0].Data[0]++
		return nil
	case testCommandTransfer:
		destination := ed25519.PublicKey(data[1:])
		if len(destination) == 0 {
			destination = accounts[1].Key
		}
		return ctx.Invoke(system.Transfer(accounts[0].Key, destination, 1))
	case testCommandTransferSigned:
		return ctx.InvokeSigned(system.Transfer(accounts[0].Key, accounts[1].Key, 1), [][]byte{testVaultSeed, data[1:2]})
	case testCommandRecurse:
		ctx.Log("depth reached")
		return ctx.Invoke(solana.NewInstruction(p.id, data))
	case testCommandBlock:
		close(p.started)
		<-p.release
		return nil
	default:
		return solana.InstructionErrorInvalidInstructionData
	}
}

type testEnv struct {
	ctx     context.Context
	bank    *Bank
	store   ledger.Store
	program *testProgram
}

func setup(t *testing.T, overrides *testOverrides) *testEnv {
	program := &testProgram{
		id:      testutil.GenerateSolanaKeys(t, 1)[0],
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	store := memory.New()
	return &testEnv{
		ctx:     context.Background(),
		bank:    New(store, withManualTestOverrides(overrides), program),
		store:   store,
		program: program,
	}
}

func (e *testEnv) newFundedKeypair(t *testing.T, lamports uint64) ed25519.PrivateKey {
	key := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, e.bank.Airdrop(e.ctx, testutil.PublicKey(key), lamports))
	return key
}

func (e *testEnv) newTransaction(t *testing.T, signers []ed25519.PrivateKey, instructions ...solana.Instruction) solana.Transaction {
	txn := solana.NewTransaction(testutil.PublicKey(signers[0]), instructions...)
	txn.SetBlockhash(e.bank.RecentBlockhash(e.ctx))
	require.NoError(t, txn.Sign(signers...))
	return txn
}

func (e *testEnv) submit(t *testing.T, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (*Result, error) {
	return e.bank.Process(e.ctx, e.newTransaction(t, signers, instructions...))
}

func (e *testEnv) lamports(t *testing.T, address ed25519.PublicKey) uint64 {
	info, err := e.bank.GetAccountInfo(e.ctx, address)
	if err == solana.ErrNoAccountInfo {
		return 0
	}
	require.NoError(t, err)
	return info.Lamports
}

func TestBank_SystemTransfer(t *testing.T) {
	env := setup(t, &testOverrides{})

	sender := env.newFundedKeypair(t, 1_000_000_000)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := env.bank.GetAccountInfo(env.ctx, receiver)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	result, err := env.submit(t, []ed25519.PrivateKey{sender}, system.Transfer(testutil.PublicKey(sender), receiver, 10_000_000))
	require.NoError(t, err)
	assert.EqualValues(t, env.bank.Slot(), result.Slot)
	assert.Contains(t, result.Logs, "Program 11111111111111111111111111111111 invoke [1]")
	assert.Contains(t, result.Logs, "Program 11111111111111111111111111111111 success")

	assert.EqualValues(t, 990_000_000, env.lamports(t, testutil.PublicKey(sender)))
	assert.EqualValues(t, 10_000_000, env.lamports(t, receiver))

	info, err := env.bank.GetAccountInfo(env.ctx, receiver)
	require.NoError(t, err)
	assert.EqualValues(t, system.ProgramKey[:], info.Owner)
}

func TestBank_Atomicity(t *testing.T) {
	env := setup(t, &testOverrides{})

	sender := env.newFundedKeypair(t, 1_000_000_000)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]

	result, err := env.submit(
		t,
		[]ed25519.PrivateKey{sender},
		system.Transfer(testutil.PublicKey(sender), receiver, 10_000_000),
		system.Transfer(testutil.PublicKey(sender), receiver, 2_000_000_000),
	)
	testutil.AssertInstructionError(t, err, 1, system.ErrResultWithNegativeLamports)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Logs)

	assert.EqualValues(t, 1_000_000_000, env.lamports(t, testutil.PublicKey(sender)))
	assert.EqualValues(t, 0, env.lamports(t, receiver))
}

func TestBank_TransactionValidation(t *testing.T) {
	env := setup(t, &testOverrides{blockhashQueueSize: 2})

	sender := env.newFundedKeypair(t, 1_000_000_000)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]
	ixn := system.Transfer(testutil.PublicKey(sender), receiver, 10_000_000)

	// Unsigned
	txn := solana.NewTransaction(testutil.PublicKey(sender), ixn)
	txn.SetBlockhash(env.bank.RecentBlockhash(env.ctx))
	_, err := env.bank.Process(env.ctx, txn)
	assert.Equal(t, ErrSignatureFailure, err)

	// Signed over a different message
	require.NoError(t, txn.Sign(sender))
	txn.SetBlockhash(solana.Blockhash{1})
	_, err = env.bank.Process(env.ctx, txn)
	assert.Equal(t, ErrSignatureFailure, err)

	// Unknown blockhash
	txn = solana.NewTransaction(testutil.PublicKey(sender), ixn)
	require.NoError(t, txn.Sign(sender))
	_, err = env.bank.Process(env.ctx, txn)
	assert.Equal(t, ErrBlockhashNotFound, err)

	// Duplicate
	txn = env.newTransaction(t, []ed25519.PrivateKey{sender}, ixn)
	_, err = env.bank.Process(env.ctx, txn)
	require.NoError(t, err)
	_, err = env.bank.Process(env.ctx, txn)
	assert.Equal(t, ErrDuplicateSignature, err)
	assert.EqualValues(t, 10_000_000, env.lamports(t, receiver))

	// Expired blockhash
	for i := 0; i < 3; i++ {
		_, err = env.submit(t, []ed25519.PrivateKey{sender}, system.Transfer(testutil.PublicKey(sender), receiver, uint64(i+1)))
		require.NoError(t, err)
	}
	txn.Message.Instructions[0].Data = system.Transfer(testutil.PublicKey(sender), receiver, 5).Data
	require.NoError(t, txn.Sign(sender))
	_, err = env.bank.Process(env.ctx, txn)
	assert.Equal(t, ErrBlockhashNotFound, err)

	// Unknown program
	_, err = env.submit(t, []ed25519.PrivateKey{sender}, solana.NewInstruction(testutil.GenerateSolanaKeys(t, 1)[0], []byte{0}))
	assert.Equal(t, solana.TransactionErrorProgramAccountNotFound, err)

	// Oversized
	_, err = env.submit(t, []ed25519.PrivateKey{sender}, solana.NewInstruction(system.ProgramKey[:], make([]byte, solana.MaxTransactionSize)))
	assert.Equal(t, solana.TransactionErrorSanitizeFailure, err)
}

func TestBank_RentChecks(t *testing.T) {
	env := setup(t, &testOverrides{})

	sender := env.newFundedKeypair(t, 1_000_000_000)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := env.submit(t, []ed25519.PrivateKey{sender}, system.Transfer(testutil.PublicKey(sender), receiver, 1_000))
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForRent, err)

	_, err = env.submit(t, []ed25519.PrivateKey{sender}, system.Transfer(testutil.PublicKey(sender), receiver, 1_000_000_000-1_000))
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForRent, err)

	// Draining an account entirely removes it
	_, err = env.submit(t, []ed25519.PrivateKey{sender}, system.Transfer(testutil.PublicKey(sender), receiver, 1_000_000_000))
	require.NoError(t, err)
	_, err = env.bank.GetAccountInfo(env.ctx, testutil.PublicKey(sender))
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	env = setup(t, &testOverrides{disableRentChecks: true})
	sender = env.newFundedKeypair(t, 1_000_000_000)
	_, err = env.submit(t, []ed25519.PrivateKey{sender}, system.Transfer(testutil.PublicKey(sender), receiver, 1_000))
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, env.lamports(t, receiver))
}

func TestBank_TokenProgram(t *testing.T) {
	env := setup(t, &testOverrides{})

	payer := env.newFundedKeypair(t, 10_000_000_000)
	mint := testutil.GenerateSolanaKeypair(t)
	owners := testutil.GenerateSolanaKeys(t, 2)

	payerKey := testutil.PublicKey(payer)
	mintKey := testutil.PublicKey(mint)

	_, err := env.submit(
		t,
		[]ed25519.PrivateKey{payer, mint},
		system.CreateAccount(payerKey, mintKey, token.ProgramKey, system.Rent.MinimumBalance(token.MintSize), token.MintSize),
		token.InitializeMint(mintKey, payerKey, nil, 0),
	)
	require.NoError(t, err)

	createAta, source, err := token.CreateAssociatedTokenAccount(payerKey, owners[0], mintKey)
	require.NoError(t, err)
	createAtaIdempotent, dest, err := token.CreateAssociatedTokenAccountIdempotent(payerKey, owners[1], mintKey)
	require.NoError(t, err)

	result, err := env.submit(
		t,
		[]ed25519.PrivateKey{payer},
		createAta,
		createAtaIdempotent,
		token.MintTo(mintKey, source, payerKey, 1),
	)
	require.NoError(t, err)
	assert.Contains(t, result.Logs, "Program 11111111111111111111111111111111 invoke [2]")
	assert.Contains(t, result.Logs, "Program "+base58.Encode(token.ProgramKey)+" invoke [2]")

	client := token.NewClient(env.bank)

	account, err := client.GetAccount(env.ctx, source, mintKey)
	require.NoError(t, err)
	assert.EqualValues(t, owners[0], account.Owner)
	assert.EqualValues(t, 1, account.Amount)

	account, err = client.GetAccount(env.ctx, dest, mintKey)
	require.NoError(t, err)
	assert.EqualValues(t, owners[1], account.Owner)
	assert.EqualValues(t, 0, account.Amount)
	assert.EqualValues(t, system.Rent.MinimumBalance(token.AccountSize), env.lamports(t, dest))

	mintState, err := client.GetMint(env.ctx, mintKey)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mintState.Supply)

	// Creating the same account again only succeeds idempotently
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, createAta)
	testutil.AssertInstructionError(t, err, 0, system.ErrAccountAlreadyInUse)
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, createAtaIdempotent)
	require.NoError(t, err)

	// Only the owner can move tokens
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, token.Transfer(source, dest, payerKey, 1))
	testutil.AssertInstructionError(t, err, 0, token.ErrorOwnerMismatch)

	accounts, err := env.bank.GetProgramAccounts(env.ctx, token.ProgramKey, ledger.DataSizeFilter(token.AccountSize), ledger.MemcmpFilter{Offset: 32, Bytes: owners[0]})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.EqualValues(t, source, accounts[0].Address)
}

func TestBank_AccountRules(t *testing.T) {
	env := setup(t, &testOverrides{})

	payer := env.newFundedKeypair(t, 1_000_000_000)
	victim := env.newFundedKeypair(t, 1_000_000_000)
	payerKey := testutil.PublicKey(payer)
	victimKey := testutil.PublicKey(victim)

	// Programs can't debit accounts they don't own, even with a signature
	ixn := solana.NewInstruction(
		env.program.id,
		[]byte{testCommandSpend},
		solana.NewAccountMeta(victimKey, true),
		solana.NewAccountMeta(payerKey, true),
	)
	_, err := env.submit(t, []ed25519.PrivateKey{payer, victim}, ixn)
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorExternalAccountLamportSpend)

	// Programs can't modify the data of accounts they don't own
	mint := testutil.GenerateSolanaKeypair(t)
	mintKey := testutil.PublicKey(mint)
	_, err = env.submit(
		t,
		[]ed25519.PrivateKey{payer, mint},
		system.CreateAccount(payerKey, mintKey, token.ProgramKey, system.Rent.MinimumBalance(token.MintSize), token.MintSize),
		token.InitializeMint(mintKey, payerKey, nil, 0),
	)
	require.NoError(t, err)

	ixn = solana.NewInstruction(env.program.id, []byte{testCommandWrite}, solana.NewAccountMeta(mintKey, false))
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, ixn)
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorExternalAccountDataModified)

	// Readonly accounts can't be modified
	ixn = solana.NewInstruction(env.program.id, []byte{testCommandWrite}, solana.NewReadonlyAccountMeta(mintKey, false))
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, ixn)
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorReadonlyDataModified)

	assert.EqualValues(t, 1_000_000_000, env.lamports(t, victimKey))
}

func TestBank_CrossProgramInvocation(t *testing.T) {
	env := setup(t, &testOverrides{})

	payer := env.newFundedKeypair(t, 1_000_000_000)
	user := env.newFundedKeypair(t, 1_000_000_000)
	payerKey := testutil.PublicKey(payer)
	userKey := testutil.PublicKey(user)

	vault, bump, err := solana.FindProgramAddressAndBump(env.program.id, testVaultSeed)
	require.NoError(t, err)
	require.NoError(t, env.bank.Airdrop(env.ctx, vault, 1_000_000_000))

	// Signer privileges extend to the callee
	ixn := solana.NewInstruction(
		env.program.id,
		[]byte{testCommandTransfer},
		solana.NewAccountMeta(userKey, true),
		solana.NewAccountMeta(payerKey, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)
	_, err = env.submit(t, []ed25519.PrivateKey{payer, user}, ixn)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000_000-1, env.lamports(t, userKey))

	// But can't be forged
	ixn = solana.NewInstruction(
		env.program.id,
		[]byte{testCommandTransfer},
		solana.NewAccountMeta(userKey, false),
		solana.NewAccountMeta(payerKey, false),
	)
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, ixn)
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorPrivilegeEscalation)

	// Program addresses are signed for by re-deriving them
	ixn = solana.NewInstruction(
		env.program.id,
		[]byte{testCommandTransferSigned, bump},
		solana.NewAccountMeta(vault, false),
		solana.NewAccountMeta(payerKey, false),
	)
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, ixn)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000_000-1, env.lamports(t, vault))

	// Using a different bump derives a different address
	ixn = solana.NewInstruction(
		env.program.id,
		[]byte{testCommandTransferSigned, bump - 1},
		solana.NewAccountMeta(vault, false),
		solana.NewAccountMeta(payerKey, false),
	)
	_, err = env.submit(t, []ed25519.PrivateKey{payer}, ixn)
	require.Error(t, err)
	assert.EqualValues(t, 1_000_000_000-1, env.lamports(t, vault))

	// Callee accounts must be passed to the caller
	ixn = solana.NewInstruction(
		env.program.id,
		append([]byte{testCommandTransfer}, payerKey...),
		solana.NewAccountMeta(userKey, true),
	)
	_, err = env.submit(t, []ed25519.PrivateKey{payer, user}, ixn)
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorMissingAccount)

	// Recursion is bounded
	result, err := env.submit(t, []ed25519.PrivateKey{payer}, solana.NewInstruction(env.program.id, []byte{testCommandRecurse}))
	testutil.AssertInstructionError(t, err, 0, solana.InstructionErrorCallDepth)
	var depth int
	for _, line := range result.Logs {
		if strings.HasSuffix(line, "depth reached") {
			depth++
		}
	}
	assert.Equal(t, defaultMaxInvokeDepth, depth)
}

func TestBank_AccountInUse(t *testing.T) {
	env := setup(t, &testOverrides{})

	payer := env.newFundedKeypair(t, 1_000_000_000)
	other := env.newFundedKeypair(t, 1_000_000_000)
	shared := testutil.GenerateSolanaKeys(t, 1)[0]

	blocking := env.newTransaction(
		t,
		[]ed25519.PrivateKey{payer},
		solana.NewInstruction(env.program.id, []byte{testCommandBlock}, solana.NewAccountMeta(shared, false)),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.bank.Process(env.ctx, blocking)
		assert.NoError(t, err)
	}()

	select {
	case <-env.program.started:
	case <-time.After(5 * time.Second):
		require.Fail(t, "timed out waiting for transaction to start")
	}

	_, err := env.submit(t, []ed25519.PrivateKey{other}, system.Transfer(testutil.PublicKey(other), shared, 1_000_000_000/2))
	assert.Equal(t, ErrAccountInUse, err)
	assert.Equal(t, ErrAccountInUse, env.bank.Airdrop(env.ctx, shared, 1))

	close(env.program.release)
	wg.Wait()

	_, err = env.submit(t, []ed25519.PrivateKey{other}, system.Transfer(testutil.PublicKey(other), shared, 1_000_000_000/2))
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000_000/2, env.lamports(t, shared))
}

func TestBank_ConcurrentReplay(t *testing.T) {
	env := setup(t, &testOverrides{})

	payer := env.newFundedKeypair(t, 1_000_000_000)
	txn := env.newTransaction(
		t,
		[]ed25519.PrivateKey{payer},
		solana.NewInstruction(env.program.id, []byte{testCommandBlock}),
	)

	// The second submission is held after sanitization until the first one
	// has committed and released its locks.
	var calls int
	replayReady := make(chan struct{})
	firstDone := make(chan struct{})
	env.bank.lockHook = func() {
		calls++
		if calls == 2 {
			close(replayReady)
			<-firstDone
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.bank.Process(env.ctx, txn)
		assert.NoError(t, err)
	}()

	select {
	case <-env.program.started:
	case <-time.After(5 * time.Second):
		require.Fail(t, "timed out waiting for transaction to start")
	}

	replayErr := make(chan error, 1)
	go func() {
		_, err := env.bank.Process(env.ctx, txn)
		replayErr <- err
	}()

	select {
	case <-replayReady:
	case <-time.After(5 * time.Second):
		require.Fail(t, "timed out waiting for replay to reach the locks")
	}

	close(env.program.release)
	wg.Wait()
	close(firstDone)

	select {
	case err := <-replayErr:
		assert.Equal(t, ErrDuplicateSignature, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "timed out waiting for replay")
	}
}

func TestBank_AirdropLimit(t *testing.T) {
	env := setup(t, &testOverrides{})

	address := testutil.GenerateSolanaKeys(t, 1)[0]
	require.NoError(t, env.bank.Airdrop(env.ctx, address, ledger.MaxLamports-1))
	assert.Equal(t, ledger.ErrLamportsOutOfRange, env.bank.Airdrop(env.ctx, address, 2))
	require.NoError(t, env.bank.Airdrop(env.ctx, address, 1))
	assert.EqualValues(t, ledger.MaxLamports, env.lamports(t, address))

	assert.Error(t, env.bank.Airdrop(env.ctx, env.program.id, 1))
}
