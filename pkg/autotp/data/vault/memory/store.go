package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	"github.com/autotp-labs/autotp-server/pkg/database/query"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

type store struct {
	mu      sync.Mutex
	records []*vault.Record
	last    uint64
}

type ById []*vault.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory vault.Store
func New() vault.Store {
	return &store{}
}

// Save implements vault.Store.Save
func (s *store) Save(_ context.Context, data *vault.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.findByVault(data.VaultAddress); item != nil {
		if data.Block <= item.Block {
			return vault.ErrStaleVaultState
		}

		// The vault address derives from the owner, so a re-armed vault
		// reuses its record with fresh order parameters.
		item.Mint = data.Mint
		item.TargetPrice = data.TargetPrice
		item.Referrer = data.Referrer
		item.State = data.State
		item.ExecutedPrice = data.ExecutedPrice

		item.Block = data.Block

		item.LastUpdatedAt = time.Now()

		item.CopyTo(data)
	} else {
		if data.Id == 0 {
			data.Id = s.last
		}
		data.LastUpdatedAt = time.Now()
		c := data.Clone()
		s.records = append(s.records, c)
	}

	return nil
}

// GetByVault implements vault.Store.GetByVault
func (s *store) GetByVault(_ context.Context, address string) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByVault(address); item != nil {
		return item.Clone(), nil
	}
	return nil, vault.ErrVaultNotFound
}

// GetByOwner implements vault.Store.GetByOwner
func (s *store) GetByOwner(_ context.Context, owner string) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByOwner(owner); item != nil {
		return item.Clone(), nil
	}
	return nil, vault.ErrVaultNotFound
}

// GetAllByState implements vault.Store.GetAllByState
func (s *store) GetAllByState(_ context.Context, state takeprofit.VaultState, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items := s.findByState(state); len(items) > 0 {
		res := s.filter(items, cursor, limit, direction)

		if len(res) == 0 {
			return nil, vault.ErrVaultNotFound
		}

		return res, nil
	}

	return nil, vault.ErrVaultNotFound
}

// GetCountByReferrer implements vault.Store.GetCountByReferrer
func (s *store) GetCountByReferrer(_ context.Context, referrer string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count uint64
	for _, item := range s.records {
		if item.Referrer == referrer && item.State == takeprofit.StateExecuted {
			count++
		}
	}
	return count, nil
}

func (s *store) findByVault(address string) *vault.Record {
	for _, item := range s.records {
		if address == item.VaultAddress {
			return item
		}
	}
	return nil
}

func (s *store) findByOwner(owner string) *vault.Record {
	var res *vault.Record
	for _, item := range s.records {
		if owner == item.Owner {
			if res == nil || item.Id > res.Id {
				res = item
			}
		}
	}
	return res
}

func (s *store) findByState(state takeprofit.VaultState) []*vault.Record {
	res := make([]*vault.Record, 0)
	for _, item := range s.records {
		if item.State == state {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) filter(items []*vault.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*vault.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*vault.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
