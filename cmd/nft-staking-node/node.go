package main

import (
	"context"
	"database/sql"
	"sync"

	"github.com/gorilla/mux"
	"github.com/mitchellh/mapstructure"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api"
	"github.com/code-payments/nft-staking/pkg/app"
	"github.com/code-payments/nft-staking/pkg/bank"
	pg "github.com/code-payments/nft-staking/pkg/database/postgres"
	"github.com/code-payments/nft-staking/pkg/ledger"
	memory_ledger "github.com/code-payments/nft-staking/pkg/ledger/memory"
	postgres_ledger "github.com/code-payments/nft-staking/pkg/ledger/postgres"
	"github.com/code-payments/nft-staking/pkg/metrics"
	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
	"github.com/code-payments/nft-staking/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking/pkg/staking"
)

const (
	ledgerStoreMemory   = "memory"
	ledgerStorePostgres = "postgres"
)

type nodeConfig struct {
	LedgerStore string     `mapstructure:"ledger_store"`
	Postgres    *pg.Config `mapstructure:"postgres"`

	// Test validator style funding. Zero disables the airdrop route.
	MaxAirdropLamports uint64 `mapstructure:"max_airdrop_lamports"`
}

// node runs the staking programs on a bank over the configured ledger store,
// auditing pools on a schedule and serving the JSON API.
type node struct {
	log  *logrus.Entry
	conf nodeConfig

	db      *sql.DB
	bank    *bank.Bank
	client  *staking.Client
	auditor *staking.Auditor

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

var _ app.App = (*node)(nil)

func (n *node) Init(config app.Config, metricsProvider *newrelic.Application) error {
	n.log = logrus.StandardLogger().WithField("type", "cmd/nft-staking-node")
	n.shutdownCh = make(chan struct{})

	n.conf = nodeConfig{LedgerStore: ledgerStoreMemory}
	if err := mapstructure.Decode(config, &n.conf); err != nil {
		return errors.Wrap(err, "invalid app config")
	}

	store, err := n.openStore(&n.conf)
	if err != nil {
		return err
	}

	n.bank = bank.New(store, bank.WithEnvConfigs(), nftrarity.Processor{}, nftstaking.Processor{})
	n.client = staking.NewClient(n.bank, staking.WithEnvConfigs())
	n.auditor = staking.NewAuditor(n.client)

	ctx := metrics.NewContext(context.Background(), metricsProvider)
	if err := n.auditor.Start(ctx); err != nil {
		return err
	}

	n.log.WithFields(logrus.Fields{
		"ledger_store":         n.conf.LedgerStore,
		"max_airdrop_lamports": n.conf.MaxAirdropLamports,
	}).Info("node initialized")
	return nil
}

func (n *node) RegisterWithHTTP(router *mux.Router) {
	api.Mount(router, "/v1", n.bank, n.client, n.auditor, api.Options{
		MaxAirdropLamports: n.conf.MaxAirdropLamports,
	})
}

func (n *node) openStore(conf *nodeConfig) (ledger.Store, error) {
	switch conf.LedgerStore {
	case ledgerStoreMemory:
		return memory_ledger.New(), nil
	case ledgerStorePostgres:
		if conf.Postgres == nil {
			return nil, errors.New("postgres config is required for the postgres ledger store")
		}

		db, err := pg.Open(conf.Postgres)
		if err != nil {
			return nil, err
		}
		n.db = db
		return postgres_ledger.New(db), nil
	default:
		return nil, errors.Errorf("unknown ledger store %q", conf.LedgerStore)
	}
}

func (n *node) ShutdownChan() <-chan struct{} {
	return n.shutdownCh
}

func (n *node) Stop() {
	n.shutdownOnce.Do(func() {
		if n.auditor != nil {
			n.auditor.Stop()
		}
		if n.db != nil {
			if err := n.db.Close(); err != nil {
				n.log.WithError(err).Warn("failed to close database")
			}
		}
		close(n.shutdownCh)
	})
}
