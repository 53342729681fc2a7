package postgres

import (
	"context"
	"crypto/ed25519"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/nft-staking/pkg/ledger"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address ed25519.PublicKey) (*ledger.Account, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model)
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner ed25519.PublicKey, filters ...ledger.Filter) ([]*ledger.Account, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner, filters...)
	if err != nil {
		return nil, err
	}

	res := make([]*ledger.Account, len(models))
	for i, model := range models {
		res[i], err = fromModel(model)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(ctx context.Context, accounts ...*ledger.Account) error {
	var saved []*ledger.Account
	var models []*model
	var deleted []string
	for _, account := range accounts {
		m, err := toModel(account)
		if err != nil {
			return err
		}

		if account.IsEmpty() {
			deleted = append(deleted, m.Address)
			continue
		}
		saved = append(saved, account)
		models = append(models, m)
	}

	if err := dbCommit(ctx, s.db, models, deleted); err != nil {
		return err
	}

	for i, account := range saved {
		account.LastUpdatedAt = models[i].LastUpdatedAt
	}
	return nil
}

// Count implements ledger.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
