package vault

import (
	"time"

	"github.com/pkg/errors"

	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

var (
	ErrVaultNotFound   = errors.New("no records could be found")
	ErrStaleVaultState = errors.New("vault state is stale")
)

// Record is the off-chain view of one take-profit vault. On-chain accounts
// close when a vault reaches a terminal state, so this record is the only
// durable history a vault leaves behind. Order listings and the referral
// dashboard read it; the execution crank scans it for armed vaults.
type Record struct {
	Id uint64

	VaultAddress string
	VaultBump    uint8

	CustodyAddress string
	CustodyBump    uint8

	Owner string
	Mint  string

	TargetPrice uint64

	// Empty when the vault was armed without a referrer
	Referrer string

	State takeprofit.VaultState

	// Price reported at execution; zero until then
	ExecutedPrice uint64

	Block uint64

	LastUpdatedAt time.Time
}

func (r *Record) IsTerminal() bool {
	return r.State.IsTerminal()
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		VaultAddress: r.VaultAddress,
		VaultBump:    r.VaultBump,

		CustodyAddress: r.CustodyAddress,
		CustodyBump:    r.CustodyBump,

		Owner: r.Owner,
		Mint:  r.Mint,

		TargetPrice: r.TargetPrice,
		Referrer:    r.Referrer,

		State:         r.State,
		ExecutedPrice: r.ExecutedPrice,

		Block: r.Block,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.VaultAddress = r.VaultAddress
	dst.VaultBump = r.VaultBump

	dst.CustodyAddress = r.CustodyAddress
	dst.CustodyBump = r.CustodyBump

	dst.Owner = r.Owner
	dst.Mint = r.Mint

	dst.TargetPrice = r.TargetPrice
	dst.Referrer = r.Referrer

	dst.State = r.State
	dst.ExecutedPrice = r.ExecutedPrice

	dst.Block = r.Block

	dst.LastUpdatedAt = r.LastUpdatedAt
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if len(r.VaultAddress) == 0 {
		return errors.New("vault address is required")
	}

	if len(r.CustodyAddress) == 0 {
		return errors.New("custody address is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if r.TargetPrice == 0 {
		return errors.New("target price is required")
	}

	switch r.State {
	case takeprofit.StateArmed, takeprofit.StateCancelled, takeprofit.StateExecuted:
	default:
		return errors.New("invalid vault state")
	}

	return nil
}
