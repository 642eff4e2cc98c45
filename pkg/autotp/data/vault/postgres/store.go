package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	"github.com/autotp-labs/autotp-server/pkg/database/query"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed vault.Store
func New(db *sql.DB) vault.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements vault.Store.Save
func (s *store) Save(ctx context.Context, record *vault.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbSave(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetByVault implements vault.Store.GetByVault
func (s *store) GetByVault(ctx context.Context, address string) (*vault.Record, error) {
	model, err := dbGetByVault(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetByOwner implements vault.Store.GetByOwner
func (s *store) GetByOwner(ctx context.Context, owner string) (*vault.Record, error) {
	model, err := dbGetByOwner(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllByState implements vault.Store.GetAllByState
func (s *store) GetAllByState(ctx context.Context, state takeprofit.VaultState, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	res, err := dbGetAllByState(ctx, s.db, state, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	vaults := make([]*vault.Record, len(res))
	for i, model := range res {
		vaults[i] = fromModel(model)
	}
	return vaults, nil
}

// GetCountByReferrer implements vault.Store.GetCountByReferrer
func (s *store) GetCountByReferrer(ctx context.Context, referrer string) (uint64, error) {
	return dbGetCountByReferrer(ctx, s.db, referrer)
}
