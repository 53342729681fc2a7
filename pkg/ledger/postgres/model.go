package postgres

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	pgutil "github.com/code-payments/nft-staking/pkg/database/postgres"
	"github.com/code-payments/nft-staking/pkg/ledger"
)

const (
	tableName = "nftstaking__core_ledgeraccount"

	allColumns = `address, owner, lamports, data, executable, slot, last_updated_at`
)

type model struct {
	Address string `db:"address"`

	Owner      string `db:"owner"`
	Lamports   uint64 `db:"lamports"`
	Data       []byte `db:"data"`
	Executable bool   `db:"executable"`

	Slot uint64 `db:"slot"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *ledger.Account) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address:       base58.Encode(obj.Address),
		Owner:         base58.Encode(obj.Owner),
		Lamports:      obj.Lamports,
		Data:          data,
		Executable:    obj.Executable,
		Slot:          obj.Slot,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) (*ledger.Account, error) {
	address, err := base58.Decode(obj.Address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid address")
	}
	owner, err := base58.Decode(obj.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner")
	}

	return &ledger.Account{
		Address:       address,
		Owner:         owner,
		Lamports:      obj.Lamports,
		Data:          obj.Data,
		Executable:    obj.Executable,
		Slot:          obj.Slot,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func (m *model) dbSave(ctx context.Context, tx *sqlx.Tx) error {
	query := `INSERT INTO ` + tableName + `
		(` + allColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)

		ON CONFLICT (address)
		DO UPDATE
			SET owner = $2, lamports = $3, data = $4, executable = $5, slot = $6, last_updated_at = $7
			WHERE ` + tableName + `.address = $1`

	m.LastUpdatedAt = time.Now()

	_, err := tx.ExecContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		m.Executable,
		m.Slot,
		m.LastUpdatedAt.UTC(),
	)
	return err
}

func dbDelete(ctx context.Context, tx *sqlx.Tx, address string) error {
	query := `DELETE FROM ` + tableName + `
		WHERE address = $1`

	_, err := tx.ExecContext(ctx, query, address)
	return err
}

func dbCommit(ctx context.Context, db *sqlx.DB, models []*model, deleted []string) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		for _, address := range deleted {
			if err := dbDelete(ctx, tx, address); err != nil {
				return err
			}
		}

		for _, m := range models {
			if err := m.dbSave(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address ed25519.PublicKey) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, base58.Encode(address))
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner ed25519.PublicKey, filters ...ledger.Filter) ([]*model, error) {
	res := []*model{}

	conditions := []string{"owner = $1"}
	args := []interface{}{base58.Encode(owner)}

	for _, filter := range filters {
		switch f := filter.(type) {
		case ledger.DataSizeFilter:
			args = append(args, int64(f))
			conditions = append(conditions, fmt.Sprintf("length(data) = $%d::bigint", len(args)))
		case ledger.MemcmpFilter:
			if f.Offset < 0 {
				return res, nil
			}
			args = append(args, f.Offset+1, len(f.Bytes), f.Bytes)
			conditions = append(conditions, fmt.Sprintf(
				"substring(data from $%d::int for $%d::int) = $%d::bytea",
				len(args)-2, len(args)-1, len(args),
			))
		default:
			return nil, errors.Errorf("unsupported filter type %T", filter)
		}
	}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY address COLLATE "C" ASC`

	err := db.SelectContext(ctx, &res, query, args...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName
	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
