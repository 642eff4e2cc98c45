package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault/tests"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"

	postgrestest "github.com/autotp-labs/autotp-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE autotp__core_vault(
			id SERIAL NOT NULL PRIMARY KEY,

			vault_address TEXT NOT NULL,
			vault_bump INTEGER NOT NULL,

			custody_address TEXT NOT NULL,
			custody_bump INTEGER NOT NULL,

			owner TEXT NOT NULL,
			mint TEXT NOT NULL,

			target_price BIGINT NOT NULL,
			referrer TEXT NOT NULL,

			state INTEGER NOT NULL,
			executed_price BIGINT NOT NULL,

			block BIGINT NOT NULL,

			last_updated_at TIMESTAMP WITH TIME ZONE,

			CONSTRAINT autotp__core_vault__uniq__vault_address UNIQUE (vault_address),
			CONSTRAINT autotp__core_vault__uniq__custody_address UNIQUE (custody_address)
		);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE autotp__core_vault;
	`
)

var (
	testStore vault.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	var cleanUpFunc func()
	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		logrus.StandardLogger().WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			logrus.StandardLogger().WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestVaultPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func TestVaultPostgresStore_CustodyConflict(t *testing.T) {
	defer teardown()

	ctx := context.Background()

	record := &vault.Record{
		VaultAddress: "vault1",
		VaultBump:    255,

		CustodyAddress: "custody1",
		CustodyBump:    254,

		Owner: "owner1",
		Mint:  "mint",

		TargetPrice: 2_000_000,

		State: takeprofit.StateArmed,

		Block: 1,
	}
	require.NoError(t, testStore.Save(ctx, record))

	// A different vault cannot claim the same custody address
	conflicting := record.Clone()
	conflicting.VaultAddress = "vault2"
	conflicting.Owner = "owner2"
	assert.ErrorIs(t, testStore.Save(ctx, conflicting), vault.ErrStaleVaultState)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not create test tables")
		return err
	}
	return nil
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not drop test tables")
		return err
	}

	return createTestTables(db)
}
