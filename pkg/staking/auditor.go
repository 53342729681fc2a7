package staking

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/nft-staking/pkg/metrics"
	"github.com/code-payments/nft-staking/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

const (
	auditTransactionName = "Staking__Audit"
	auditConcurrency     = 8
)

// Violation is a pool whose ledger state breaks an escrow invariant.
type Violation struct {
	Pool    ed25519.PublicKey
	Account ed25519.PublicKey
	Reason  string
}

func (v *Violation) String() string {
	return fmt.Sprintf("%s (%s): %s", base58.Encode(v.Pool), base58.Encode(v.Account), v.Reason)
}

// Auditor periodically checks that every pool's locked count matches its
// escrow records, and that each record's escrow account holds exactly the
// staked asset.
type Auditor struct {
	log    *logrus.Entry
	client *Client

	mu   sync.Mutex
	cron *cron.Cron
}

func NewAuditor(client *Client) *Auditor {
	return &Auditor{
		log:    logrus.StandardLogger().WithField("type", "staking/auditor"),
		client: client,
	}
}

// Start schedules audits until Stop is called.
func (a *Auditor) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cron != nil {
		return errors.New("auditor already started")
	}

	schedule := a.client.conf.auditSchedule.Get(ctx)

	c := cron.New(cron.WithLocation(time.Local))
	_, err := c.AddFunc(schedule, func() {
		runCtx, end := metrics.StartTransaction(ctx, auditTransactionName)
		defer end()

		if _, err := a.Audit(runCtx); err != nil {
			a.log.WithError(err).Warn("failure auditing pools")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid audit schedule %q", schedule)
	}

	c.Start()
	a.cron = c

	a.log.WithField("schedule", schedule).Info("auditor started")
	return nil
}

// Stop cancels scheduled audits and waits for a running one to finish.
func (a *Auditor) Stop() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Audit checks every pool on the ledger and returns the violations found.
// Each violation is also logged and recorded as an event.
func (a *Auditor) Audit(ctx context.Context) ([]*Violation, error) {
	start := time.Now()
	log := a.log.WithFields(logrus.Fields{
		"method":   "Audit",
		"audit_id": uuid.New().String(),
	})

	pools, err := a.client.GetPools(ctx)
	if err != nil {
		return nil, err
	}

	found := make([][]*Violation, len(pools))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)
	for i, pool := range pools {
		i, pool := i, pool
		g.Go(func() error {
			violations, err := a.auditPool(groupCtx, pool)
			if err != nil {
				return errors.Wrapf(err, "failed to audit pool %s", base58.Encode(pool.Address))
			}
			found[i] = violations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var violations []*Violation
	for _, v := range found {
		violations = append(violations, v...)
	}

	for _, v := range violations {
		log.WithFields(logrus.Fields{
			"pool":    base58.Encode(v.Pool),
			"account": base58.Encode(v.Account),
			"reason":  v.Reason,
		}).Warn("pool invariant violated")

		metrics.RecordEvent(ctx, auditViolationEventName, map[string]interface{}{
			"pool":    base58.Encode(v.Pool),
			"account": base58.Encode(v.Account),
			"reason":  v.Reason,
		})
	}
	metrics.RecordCount(ctx, auditViolationCountMetricName, uint64(len(violations)))
	metrics.RecordDuration(ctx, auditDurationMetricName, time.Since(start))

	log.WithFields(logrus.Fields{
		"pools":      len(pools),
		"violations": len(violations),
	}).Debug("audit complete")
	return violations, nil
}

func (a *Auditor) auditPool(ctx context.Context, pool *Pool) ([]*Violation, error) {
	staked, err := a.client.GetStakedByPool(ctx, pool.Address)
	if err != nil {
		return nil, err
	}

	var violations []*Violation
	if uint64(len(staked)) != pool.TotalLocked {
		violations = append(violations, &Violation{
			Pool:    pool.Address,
			Account: pool.Address,
			Reason:  fmt.Sprintf("total locked is %d but %d assets are in escrow", pool.TotalLocked, len(staked)),
		})
	}

	for _, asset := range staked {
		escrow, err := nftstaking.GetNftVaultAtaAddress(&nftstaking.GetNftVaultAtaAddressArgs{
			NftVault: asset.Address,
			NftMint:  asset.NftMint,
		})
		if err != nil {
			return nil, err
		}

		account, err := a.client.tokens.GetAccount(ctx, escrow, asset.NftMint)
		switch err {
		case nil:
		case token.ErrAccountNotFound, token.ErrInvalidTokenAccount:
			violations = append(violations, &Violation{
				Pool:    pool.Address,
				Account: escrow,
				Reason:  "escrow account is missing or invalid",
			})
			continue
		default:
			return nil, err
		}

		if !account.Owner.Equal(asset.Address) {
			violations = append(violations, &Violation{
				Pool:    pool.Address,
				Account: escrow,
				Reason:  "escrow account is not owned by its vault",
			})
		}
		if account.Amount != 1 {
			violations = append(violations, &Violation{
				Pool:    pool.Address,
				Account: escrow,
				Reason:  fmt.Sprintf("escrow account holds %d units", account.Amount),
			})
		}
	}

	// The reads above aren't a snapshot. A pool whose total moved while it was
	// being scanned is left for the next audit.
	current, err := a.client.GetPool(ctx, pool.Address)
	if err == ErrPoolNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if current.TotalLocked != pool.TotalLocked {
		a.log.WithFields(logrus.Fields{
			"method": "auditPool",
			"pool":   base58.Encode(pool.Address),
		}).Debug("pool changed during audit, skipping")
		return nil, nil
	}

	return violations, nil
}
