package staking

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/nft-staking/pkg/bank"
	"github.com/code-payments/nft-staking/pkg/cache"
	"github.com/code-payments/nft-staking/pkg/ledger"
	"github.com/code-payments/nft-staking/pkg/rate"
	"github.com/code-payments/nft-staking/pkg/retry"
	"github.com/code-payments/nft-staking/pkg/retry/backoff"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

const (
	poolAddressCacheSize = 10_000
	submitBaseBackoff    = 10 * time.Millisecond
	submitBackoffJitter  = 0.1
)

// Ledger is the subset of bank.Bank the client operates against.
type Ledger interface {
	solana.AccountInfoGetter

	Process(ctx context.Context, txn solana.Transaction) (*bank.Result, error)
	RecentBlockhash(ctx context.Context) solana.Blockhash
	GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, filters ...ledger.Filter) ([]*ledger.Account, error)
}

var _ Ledger = (*bank.Bank)(nil)

// Client builds, signs and submits allow list and staking pool transactions,
// and reads their state back from the ledger.
type Client struct {
	log  *logrus.Entry
	conf *conf

	ledger Ledger
	tokens *token.Client

	limiter     rate.Limiter
	poolAddrs   *cache.Cache[ed25519.PublicKey]
	eligibility *eligibilityIndex
}

// NewClient returns a Client that submits transactions to l.
func NewClient(l Ledger, configProvider ConfigProvider) *Client {
	conf := configProvider()
	ctx := context.Background()

	return &Client{
		log:         logrus.StandardLogger().WithField("type", "staking/client"),
		conf:        conf,
		ledger:      l,
		tokens:      token.NewClient(l),
		limiter:     rate.NewLocalRateLimiter(xrate.Limit(conf.userRateLimit.Get(ctx))),
		poolAddrs:   cache.NewCache[ed25519.PublicKey](poolAddressCacheSize),
		eligibility: newEligibilityIndex(uint(conf.eligibilityFilterSize.Get(ctx))),
	}
}

// submit signs and processes a transaction paid for by the first signer.
// Transactions that lose an account lock race are re-signed against a fresh
// blockhash and retried.
func (c *Client) submit(ctx context.Context, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (*bank.Result, error) {
	if len(signers) == 0 {
		return nil, errors.New("at least one signer is required")
	}

	log := c.log.WithFields(logrus.Fields{
		"method": "submit",
		"payer":  base58.Encode(publicKey(signers[0])),
	})

	var result *bank.Result
	_, err := retry.Retry(
		ctx,
		func() error {
			txn := solana.NewTransaction(publicKey(signers[0]), instructions...)
			txn.SetBlockhash(c.ledger.RecentBlockhash(ctx))
			if err := txn.Sign(signers...); err != nil {
				return errors.Wrap(err, "failed to sign transaction")
			}

			var err error
			result, err = c.ledger.Process(ctx, txn)
			if err != nil {
				log.WithError(err).Debug("transaction failed")
			}
			return err
		},
		retry.RetriableErrors(bank.ErrAccountInUse, bank.ErrBlockhashNotFound),
		retry.Limit(uint(c.conf.submitMaxAttempts.Get(ctx))),
		retry.BackoffWithJitter(backoff.BinaryExponential(submitBaseBackoff), c.conf.submitMaxBackoff.Get(ctx), submitBackoffJitter),
	)
	return result, err
}

func (c *Client) allow(user ed25519.PublicKey) error {
	allowed, err := c.limiter.Allow(base58.Encode(user))
	if err != nil {
		c.log.WithError(err).Warn("failure checking rate limit")
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

func publicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}
