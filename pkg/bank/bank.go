package bank

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/cache"
	"github.com/code-payments/nft-staking/pkg/ledger"
	"github.com/code-payments/nft-staking/pkg/metrics"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/solana/token"
	stripedsync "github.com/code-payments/nft-staking/pkg/sync"
)

const (
	metricsStructName = "bank"

	transactionsProcessedMetricName = "Bank/transactions_processed"
	transactionsFailedMetricName    = "Bank/transactions_failed"
)

var (
	ErrAccountInUse       = solana.TransactionErrorAccountInUse
	ErrBlockhashNotFound  = solana.TransactionErrorBlockhashNotFound
	ErrDuplicateSignature = solana.TransactionErrorDuplicateSignature
	ErrSignatureFailure   = solana.TransactionErrorSignatureFailure
)

// NativeLoaderKey owns the builtin program accounts.
//
// Current key: NativeLoader1111111111111111111111111111111
var NativeLoaderKey = ed25519.PublicKey{5, 135, 132, 191, 20, 139, 164, 40, 47, 176, 18, 87, 72, 136, 169, 241, 83, 160, 125, 173, 247, 101, 192, 69, 92, 154, 151, 3, 128, 0, 0, 0}

// Result is the outcome of a processed transaction.
type Result struct {
	Signature solana.Signature
	Slot      uint64
	Logs      []string
}

// Bank executes transactions against the accounts of a ledger.Store. Each
// transaction is applied atomically: either all of its account changes are
// committed, or none are.
type Bank struct {
	log   *logrus.Entry
	conf  *conf
	store ledger.Store

	programs   map[string]solana.Processor
	locks      *stripedsync.StripedLock
	signatures *cache.Cache[uint64] // signature -> slot processed in

	slot uint64

	// lockHook runs between sanitization and locking. Tests use it to
	// interleave submissions.
	lockHook func()

	blockhashMu sync.RWMutex
	blockhashes []solana.Blockhash
}

// New returns a Bank with the system, token and associated token programs
// deployed, along with any additional programs.
func New(store ledger.Store, configProvider ConfigProvider, programs ...solana.Processor) *Bank {
	conf := configProvider()
	ctx := context.Background()

	b := &Bank{
		log:        logrus.StandardLogger().WithField("type", "bank"),
		conf:       conf,
		store:      store,
		programs:   make(map[string]solana.Processor),
		locks:      stripedsync.NewStripedLock(uint(conf.lockStripes.Get(ctx))),
		signatures: cache.NewCache[uint64](int(conf.signatureCacheSize.Get(ctx))),
	}

	for _, program := range append([]solana.Processor{
		system.Processor{},
		token.Processor{},
		token.AssociatedProcessor{},
	}, programs...) {
		b.programs[string(program.ProgramID())] = program
	}

	return b
}

// IsDeployed reports whether program can be invoked.
func (b *Bank) IsDeployed(program ed25519.PublicKey) bool {
	_, ok := b.programs[string(program)]
	return ok
}

// Slot returns the slot of the most recently committed transaction.
func (b *Bank) Slot() uint64 {
	return atomic.LoadUint64(&b.slot)
}

// RecentBlockhash returns a blockhash that transactions can reference. The
// blockhash expires once enough newer blockhashes have been issued.
func (b *Bank) RecentBlockhash(ctx context.Context) solana.Blockhash {
	slot := b.Slot()

	var slotBytes [8]byte
	binary.LittleEndian.PutUint64(slotBytes[:], slot)
	blockhash := solana.Blockhash(sha256.Sum256(append([]byte("blockhash"), slotBytes[:]...)))

	b.blockhashMu.Lock()
	defer b.blockhashMu.Unlock()

	for _, existing := range b.blockhashes {
		if existing == blockhash {
			return blockhash
		}
	}

	b.blockhashes = append(b.blockhashes, blockhash)
	if size := int(b.conf.blockhashQueueSize.Get(ctx)); len(b.blockhashes) > size {
		b.blockhashes = b.blockhashes[len(b.blockhashes)-size:]
	}
	return blockhash
}

func (b *Bank) isRecentBlockhash(blockhash solana.Blockhash) bool {
	b.blockhashMu.RLock()
	defer b.blockhashMu.RUnlock()

	for _, existing := range b.blockhashes {
		if existing == blockhash {
			return true
		}
	}
	return false
}

// Process executes a signed transaction. Transaction level failures are
// returned as solana.TransactionErrorKey values, and failed instructions as a
// *solana.InstructionError. The result carries program logs whenever
// instructions were executed, including on failure.
func (b *Bank) Process(ctx context.Context, txn solana.Transaction) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Process")
	defer tracer.End()

	result, err := b.process(ctx, txn)
	tracer.OnError(err)

	if err != nil {
		metrics.RecordCount(ctx, transactionsFailedMetricName, 1)
	} else {
		metrics.RecordCount(ctx, transactionsProcessedMetricName, 1)
	}
	return result, err
}

func (b *Bank) process(ctx context.Context, txn solana.Transaction) (*Result, error) {
	if len(txn.Marshal()) > solana.MaxTransactionSize {
		return nil, solana.TransactionErrorSanitizeFailure
	}
	if err := txn.VerifySignatures(); err != nil {
		return nil, err
	}

	signature := txn.Signatures[0]
	log := b.log.WithFields(logrus.Fields{
		"method":    "Process",
		"signature": base58.Encode(signature[:]),
	})

	if !b.isRecentBlockhash(txn.Message.RecentBlockhash) {
		return nil, ErrBlockhashNotFound
	}
	if _, ok := b.signatures.Get(string(signature[:])); ok {
		return nil, ErrDuplicateSignature
	}

	m := txn.Message
	for i := range m.Accounts {
		for j := i + 1; j < len(m.Accounts); j++ {
			if string(m.Accounts[i]) == string(m.Accounts[j]) {
				return nil, solana.TransactionErrorAccountLoadedTwice
			}
		}
	}
	instructions, err := m.DecompileInstructions()
	if err != nil {
		return nil, err
	}
	for _, ixn := range instructions {
		if !b.IsDeployed(ixn.Program) {
			return nil, solana.TransactionErrorProgramAccountNotFound
		}
	}

	var exclusive, shared [][]byte
	for i, key := range m.Accounts {
		if m.IsWritable(i) {
			exclusive = append(exclusive, key)
		} else {
			shared = append(shared, key)
		}
	}

	if b.lockHook != nil {
		b.lockHook()
	}

	unlock, ok := b.locks.TryLockKeys(exclusive, shared)
	if !ok {
		log.Debug("transaction conflicts with one in progress")
		return nil, ErrAccountInUse
	}
	defer unlock()

	// The fee payer is locked exclusively, so a copy of this transaction that
	// committed after the check above has cached its signature by now.
	if _, ok := b.signatures.Get(string(signature[:])); ok {
		return nil, ErrDuplicateSignature
	}

	exec := &executor{
		ctx:      ctx,
		log:      log,
		programs: b.programs,
		maxDepth: int(b.conf.maxInvokeDepth.Get(ctx)),
		keys:     m.Accounts,
		accounts: make([]*solana.AccountInfo, len(m.Accounts)),
	}

	pre := make([]*solana.AccountInfo, len(m.Accounts))
	for i, key := range m.Accounts {
		info, err := b.load(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "error loading account")
		}
		exec.accounts[i] = info
		pre[i] = info.Clone()
	}

	result := &Result{
		Signature: signature,
		Slot:      b.Slot(),
	}

	for i, ixn := range m.Instructions {
		f := exec.newFrame(m.Accounts[ixn.ProgramIndex], 1)
		for _, index := range ixn.Accounts {
			f.addAccount(int(index), m.IsSigner(int(index)), m.IsWritable(int(index)))
		}

		if err := f.execute(ixn.Data); err != nil {
			result.Logs = exec.logs
			log.WithError(err).Debugf("instruction %d failed", i)
			return result, solana.NewInstructionError(i, err)
		}
	}
	result.Logs = exec.logs

	var updated []*ledger.Account
	for i, key := range m.Accounts {
		if !m.IsWritable(i) {
			continue
		}

		post := exec.accounts[i]
		if !isModified(pre[i], post) {
			continue
		}

		if b.conf.enableRentChecks.Get(ctx) && post.Lamports > 0 && !system.Rent.IsExempt(post.Lamports, uint64(len(post.Data))) {
			log.Debugf("account %s is left below the rent exempt minimum", base58.Encode(key))
			return result, solana.TransactionErrorInsufficientFundsForRent
		}

		updated = append(updated, &ledger.Account{
			Address:    key,
			Owner:      post.Owner,
			Lamports:   post.Lamports,
			Data:       post.Data,
			Executable: post.Executable,
		})
	}

	slot := atomic.AddUint64(&b.slot, 1)
	for _, account := range updated {
		account.Slot = slot
	}

	if err := b.store.Commit(ctx, updated...); err != nil {
		log.WithError(err).Warn("failure committing accounts")
		return nil, errors.Wrap(err, "error committing accounts")
	}

	b.signatures.Add(string(signature[:]), slot)

	result.Slot = slot
	return result, nil
}

func (b *Bank) load(ctx context.Context, key ed25519.PublicKey) (*solana.AccountInfo, error) {
	if b.IsDeployed(key) {
		return &solana.AccountInfo{
			Owner:      NativeLoaderKey,
			Lamports:   1,
			Executable: true,
		}, nil
	}

	account, err := b.store.Get(ctx, key)
	if err == ledger.ErrAccountNotFound {
		return &solana.AccountInfo{
			Owner: system.ProgramKey[:],
		}, nil
	} else if err != nil {
		return nil, err
	}

	return &solana.AccountInfo{
		Owner:      account.Owner,
		Lamports:   account.Lamports,
		Data:       account.Data,
		Executable: account.Executable,
	}, nil
}

// Airdrop credits lamports to an address, creating a system account if none
// exists.
func (b *Bank) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Airdrop")
	defer tracer.End()

	log := b.log.WithFields(logrus.Fields{
		"method":   "Airdrop",
		"address":  base58.Encode(address),
		"lamports": lamports,
	})

	unlock, ok := b.locks.TryLockKeys([][]byte{address}, nil)
	if !ok {
		return ErrAccountInUse
	}
	defer unlock()

	info, err := b.load(ctx, address)
	if err != nil {
		tracer.OnError(err)
		return err
	}
	if info.Executable {
		return errors.New("cannot airdrop to a program")
	}
	if lamports > ledger.MaxLamports-info.Lamports {
		return ledger.ErrLamportsOutOfRange
	}

	account := &ledger.Account{
		Address:    address,
		Owner:      info.Owner,
		Lamports:   info.Lamports + lamports,
		Data:       info.Data,
		Executable: info.Executable,
		Slot:       atomic.AddUint64(&b.slot, 1),
	}
	if err := b.store.Commit(ctx, account); err != nil {
		log.WithError(err).Warn("failure committing airdrop")
		tracer.OnError(err)
		return err
	}

	log.Debug("airdrop committed")
	return nil
}

// GetAccountInfo returns the committed state of an account, or
// solana.ErrNoAccountInfo if the address holds no account.
func (b *Bank) GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	account, err := b.store.Get(ctx, address)
	if err == ledger.ErrAccountNotFound {
		return nil, solana.ErrNoAccountInfo
	} else if err != nil {
		return nil, err
	}

	return &solana.AccountInfo{
		Owner:      account.Owner,
		Lamports:   account.Lamports,
		Data:       account.Data,
		Executable: account.Executable,
	}, nil
}

// GetProgramAccounts returns all accounts owned by program that satisfy
// every filter.
func (b *Bank) GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, filters ...ledger.Filter) ([]*ledger.Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetProgramAccounts")
	defer tracer.End()

	accounts, err := b.store.GetAllByOwner(ctx, program, filters...)
	tracer.OnError(err)
	return accounts, err
}

func isModified(pre, post *solana.AccountInfo) bool {
	return pre.Lamports != post.Lamports ||
		string(pre.Owner) != string(post.Owner) ||
		string(pre.Data) != string(post.Data) ||
		len(pre.Data) != len(post.Data) ||
		pre.Executable != post.Executable
}
