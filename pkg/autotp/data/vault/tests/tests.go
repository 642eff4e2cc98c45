package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	"github.com/autotp-labs/autotp-server/pkg/database/query"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

func RunTests(t *testing.T, s vault.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s vault.Store){
		testHappyPath,
		testGetByOwner,
		testGetAllByState,
		testGetCountByReferrer,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s vault.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		start := time.Now()

		ctx := context.Background()

		expected := &vault.Record{
			VaultAddress: "vault",
			VaultBump:    255,

			CustodyAddress: "custody",
			CustodyBump:    254,

			Owner: "owner",
			Mint:  "mint",

			TargetPrice: 2_000_000,
			Referrer:    "referrer",

			State: takeprofit.StateArmed,

			Block: 123456,
		}
		cloned := expected.Clone()

		// Validate the record initially doesn't exist

		_, err := s.GetByVault(ctx, expected.VaultAddress)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		// Save the record

		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.LastUpdatedAt.After(start))

		// Ensure we can fetch the same record by all supported indices

		actual, err := s.GetByVault(ctx, expected.VaultAddress)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		actual, err = s.GetByOwner(ctx, expected.Owner)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		initialBlock := expected.Block

		// Transition the vault to executed

		previousLastUpdatedTs := expected.LastUpdatedAt

		expected.State = takeprofit.StateExecuted
		expected.ExecutedPrice = 2_500_000

		// Try to save the record with old blockchain data, which should fail

		expected.Block = initialBlock - 1
		time.Sleep(time.Millisecond)
		err = s.Save(ctx, expected)
		assert.Equal(t, vault.ErrStaleVaultState, err)
		assert.Equal(t, previousLastUpdatedTs, expected.LastUpdatedAt)

		// Save the record with new blockchain data

		expected.Block = initialBlock + 1
		cloned = expected.Clone()
		time.Sleep(time.Millisecond)
		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.LastUpdatedAt.After(previousLastUpdatedTs))

		actual, err = s.GetByVault(ctx, expected.VaultAddress)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		// Re-arm the same vault address with a fresh order

		expected.State = takeprofit.StateArmed
		expected.TargetPrice = 3_000_000
		expected.Referrer = ""
		expected.ExecutedPrice = 0
		expected.Block = initialBlock + 2
		cloned = expected.Clone()
		require.NoError(t, s.Save(ctx, expected))

		actual, err = s.GetByVault(ctx, expected.VaultAddress)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
	})
}

func testGetByOwner(t *testing.T, s vault.Store) {
	t.Run("testGetByOwner", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetByOwner(ctx, "owner")
		assert.Equal(t, vault.ErrVaultNotFound, err)

		for i := 0; i < 3; i++ {
			record := &vault.Record{
				VaultAddress:   fmt.Sprintf("vault%d", i),
				CustodyAddress: fmt.Sprintf("custody%d", i),
				Owner:          fmt.Sprintf("owner%d", i),
				Mint:           "mint",
				TargetPrice:    1_000_000,
				State:          takeprofit.StateArmed,
				Block:          uint64(100 + i),
			}
			require.NoError(t, s.Save(ctx, record))
		}

		actual, err := s.GetByOwner(ctx, "owner1")
		require.NoError(t, err)
		assert.Equal(t, "vault1", actual.VaultAddress)
		assert.Equal(t, "custody1", actual.CustodyAddress)
	})
}

func testGetAllByState(t *testing.T, s vault.Store) {
	t.Run("testGetAllByState", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByState(ctx, takeprofit.StateArmed, query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		states := []takeprofit.VaultState{
			takeprofit.StateArmed,
			takeprofit.StateArmed,
			takeprofit.StateArmed,
			takeprofit.StateCancelled,
			takeprofit.StateExecuted,
		}
		for i, state := range states {
			record := &vault.Record{
				VaultAddress:   fmt.Sprintf("vault%d", i),
				CustodyAddress: fmt.Sprintf("custody%d", i),
				Owner:          fmt.Sprintf("owner%d", i),
				Mint:           "mint",
				TargetPrice:    1_000_000,
				State:          state,
				Block:          uint64(100 + i),
			}
			require.NoError(t, s.Save(ctx, record))
		}

		armed, err := s.GetAllByState(ctx, takeprofit.StateArmed, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, armed, 3)
		for i, record := range armed {
			assert.Equal(t, fmt.Sprintf("vault%d", i), record.VaultAddress)
		}

		// Limits apply
		armed, err = s.GetAllByState(ctx, takeprofit.StateArmed, query.EmptyCursor, 2, query.Ascending)
		require.NoError(t, err)
		assert.Len(t, armed, 2)

		// Cursors pick up where the last page ended
		armed, err = s.GetAllByState(ctx, takeprofit.StateArmed, query.ToCursor(armed[1].Id), 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, armed, 1)
		assert.Equal(t, "vault2", armed[0].VaultAddress)

		// Descending ordering
		armed, err = s.GetAllByState(ctx, takeprofit.StateArmed, query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, armed, 3)
		assert.Equal(t, "vault2", armed[0].VaultAddress)

		executed, err := s.GetAllByState(ctx, takeprofit.StateExecuted, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		assert.Len(t, executed, 1)
	})
}

func testGetCountByReferrer(t *testing.T, s vault.Store) {
	t.Run("testGetCountByReferrer", func(t *testing.T) {
		ctx := context.Background()

		count, err := s.GetCountByReferrer(ctx, "referrer")
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		type seed struct {
			referrer string
			state    takeprofit.VaultState
		}
		seeds := []seed{
			{"referrer", takeprofit.StateExecuted},
			{"referrer", takeprofit.StateExecuted},

			// Not yet executed, so not yet credited
			{"referrer", takeprofit.StateArmed},

			{"other", takeprofit.StateExecuted},
			{"", takeprofit.StateExecuted},
		}
		for i, seed := range seeds {
			record := &vault.Record{
				VaultAddress:   fmt.Sprintf("vault%d", i),
				CustodyAddress: fmt.Sprintf("custody%d", i),
				Owner:          fmt.Sprintf("owner%d", i),
				Mint:           "mint",
				TargetPrice:    1_000_000,
				Referrer:       seed.referrer,
				State:          seed.state,
				Block:          uint64(100 + i),
			}
			require.NoError(t, s.Save(ctx, record))
		}

		count, err = s.GetCountByReferrer(ctx, "referrer")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = s.GetCountByReferrer(ctx, "other")
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *vault.Record) {
	assert.Equal(t, obj1.VaultAddress, obj2.VaultAddress)
	assert.Equal(t, obj1.VaultBump, obj2.VaultBump)
	assert.Equal(t, obj1.CustodyAddress, obj2.CustodyAddress)
	assert.Equal(t, obj1.CustodyBump, obj2.CustodyBump)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.TargetPrice, obj2.TargetPrice)
	assert.Equal(t, obj1.Referrer, obj2.Referrer)
	assert.Equal(t, obj1.State, obj2.State)
	assert.Equal(t, obj1.ExecutedPrice, obj2.ExecutedPrice)
	assert.Equal(t, obj1.Block, obj2.Block)
}
