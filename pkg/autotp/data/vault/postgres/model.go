package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	pgutil "github.com/autotp-labs/autotp-server/pkg/database/postgres"
	q "github.com/autotp-labs/autotp-server/pkg/database/query"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

const (
	tableName = "autotp__core_vault"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	VaultAddress string `db:"vault_address"`
	VaultBump    uint   `db:"vault_bump"`

	CustodyAddress string `db:"custody_address"`
	CustodyBump    uint   `db:"custody_bump"`

	Owner string `db:"owner"`
	Mint  string `db:"mint"`

	TargetPrice uint64 `db:"target_price"`
	Referrer    string `db:"referrer"`

	State         uint   `db:"state"`
	ExecutedPrice uint64 `db:"executed_price"`

	Block uint64 `db:"block"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *vault.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		VaultAddress: obj.VaultAddress,
		VaultBump:    uint(obj.VaultBump),

		CustodyAddress: obj.CustodyAddress,
		CustodyBump:    uint(obj.CustodyBump),

		Owner: obj.Owner,
		Mint:  obj.Mint,

		TargetPrice: obj.TargetPrice,
		Referrer:    obj.Referrer,

		State:         uint(obj.State),
		ExecutedPrice: obj.ExecutedPrice,

		Block: obj.Block,

		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *vault.Record {
	return &vault.Record{
		Id: uint64(obj.Id.Int64),

		VaultAddress: obj.VaultAddress,
		VaultBump:    uint8(obj.VaultBump),

		CustodyAddress: obj.CustodyAddress,
		CustodyBump:    uint8(obj.CustodyBump),

		Owner: obj.Owner,
		Mint:  obj.Mint,

		TargetPrice: obj.TargetPrice,
		Referrer:    obj.Referrer,

		State:         takeprofit.VaultState(obj.State),
		ExecutedPrice: obj.ExecutedPrice,

		Block: obj.Block,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(vault_address, vault_bump, custody_address, custody_bump, owner, mint, target_price, referrer, state, executed_price, block, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)

			ON CONFLICT (vault_address)
			DO UPDATE
				SET mint = $6, target_price = $7, referrer = $8, state = $9, executed_price = $10, block = $11, last_updated_at = $12
				WHERE ` + tableName + `.vault_address = $1 AND ` + tableName + `.block < $11

			RETURNING
				id, vault_address, vault_bump, custody_address, custody_bump, owner, mint, target_price, referrer, state, executed_price, block, last_updated_at`

		m.LastUpdatedAt = time.Now()

		err := tx.QueryRowxContext(
			ctx,
			query,

			m.VaultAddress,
			m.VaultBump,

			m.CustodyAddress,
			m.CustodyBump,

			m.Owner,
			m.Mint,

			m.TargetPrice,
			m.Referrer,

			m.State,
			m.ExecutedPrice,

			m.Block,

			m.LastUpdatedAt.UTC(),
		).StructScan(m)

		// The only reachable unique violation is a record claiming another
		// vault's custody address, which means the caller's view is behind.
		if pgutil.IsUniqueViolation(err) {
			return vault.ErrStaleVaultState
		}
		return pgutil.CheckNoRows(err, vault.ErrStaleVaultState)
	})
}

func dbGetByVault(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, vault_address, vault_bump, custody_address, custody_bump, owner, mint, target_price, referrer, state, executed_price, block, last_updated_at
		FROM ` + tableName + `
		WHERE vault_address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return res, nil
}

func dbGetByOwner(ctx context.Context, db *sqlx.DB, owner string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, vault_address, vault_bump, custody_address, custody_bump, owner, mint, target_price, referrer, state, executed_price, block, last_updated_at
		FROM ` + tableName + `
		WHERE owner = $1
		ORDER BY id DESC
		LIMIT 1`

	err := db.GetContext(ctx, res, query, owner)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return res, nil
}

func dbGetAllByState(ctx context.Context, db *sqlx.DB, state takeprofit.VaultState, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT
		id, vault_address, vault_bump, custody_address, custody_bump, owner, mint, target_price, referrer, state, executed_price, block, last_updated_at
		FROM ` + tableName + `
		WHERE (state = $1)
	`

	opts := []interface{}{state}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}

	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}

func dbGetCountByReferrer(ctx context.Context, db *sqlx.DB, referrer string) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + ` WHERE referrer = $1 AND state = $2`
	err := db.GetContext(ctx, &res, query, referrer, uint(takeprofit.StateExecuted))
	if err != nil {
		return 0, err
	}

	return res, nil
}
