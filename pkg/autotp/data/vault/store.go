package vault

import (
	"context"

	"github.com/autotp-labs/autotp-server/pkg/database/query"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

type Store interface {
	// Save saves a vault record. Updates must move forward in blockchain
	// history; a save at a block at or before the stored one fails with
	// ErrStaleVaultState.
	Save(ctx context.Context, record *Record) error

	// GetByVault gets a vault record by the vault address
	GetByVault(ctx context.Context, vault string) (*Record, error)

	// GetByOwner gets the vault record for an owner. Owners have at most one
	// vault at a time; this returns the most recent record.
	GetByOwner(ctx context.Context, owner string) (*Record, error)

	// GetAllByState gets all vault records in the provided state
	GetAllByState(ctx context.Context, state takeprofit.VaultState, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetCountByReferrer gets the count of executed vaults that credited the
	// given referrer
	GetCountByReferrer(ctx context.Context, referrer string) (uint64, error)
}
