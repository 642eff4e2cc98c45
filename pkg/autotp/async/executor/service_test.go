package async_executor

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autotp-labs/autotp-server/pkg/jupiter"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	vault_memory "github.com/autotp-labs/autotp-server/pkg/autotp/data/vault/memory"
	"github.com/autotp-labs/autotp-server/pkg/autotp/ledger"
	"github.com/autotp-labs/autotp-server/pkg/autotp/program"
)

type testEnv struct {
	ctx     context.Context
	service *service
	runtime *ledger.Runtime
	data    vault.Store

	treasury   ed25519.PublicKey
	owner      ed25519.PublicKey
	mint       ed25519.PublicKey
	subsidizer ed25519.PrivateKey

	vaultAddress   ed25519.PublicKey
	custodyAddress ed25519.PublicKey

	ownerTokens    ed25519.PublicKey
	protocolTokens ed25519.PublicKey
}

func newKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}

func setup(t *testing.T) *testEnv {
	runtime := ledger.NewRuntime()

	subsidizerPub, subsidizerPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	env := &testEnv{
		ctx:        context.Background(),
		runtime:    runtime,
		data:       vault_memory.New(),
		treasury:   newKey(t),
		owner:      newKey(t),
		mint:       newKey(t),
		subsidizer: subsidizerPriv,
	}
	runtime.Register(takeprofit.PROGRAM_ID, program.NewProcessor(env.treasury))

	env.vaultAddress, _, err = takeprofit.GetVaultAddress(&takeprofit.GetVaultAddressArgs{
		Owner: env.owner,
	})
	require.NoError(t, err)
	env.custodyAddress, _, err = takeprofit.GetCustodyAddress(&takeprofit.GetCustodyAddressArgs{
		Vault: env.vaultAddress,
	})
	require.NoError(t, err)

	// Wallets with lamports for rent and fees
	zeroProgram := make(ed25519.PublicKey, ed25519.PublicKeySize)
	runtime.Ledger().PutAccount(env.owner, &ledger.Account{Lamports: 10_000_000, Owner: zeroProgram})
	runtime.Ledger().PutAccount(subsidizerPub, &ledger.Account{Lamports: 10_000_000, Owner: zeroProgram})

	// Destination token accounts live at the associated addresses the crank
	// derives.
	env.ownerTokens = env.putAssociatedTokenAccount(t, env.owner, 5000)
	env.protocolTokens = env.putAssociatedTokenAccount(t, env.treasury, 0)

	env.service = New(env.data, nil, ledger.NewRPCClient(runtime), subsidizerPriv, env.treasury).(*service)
	return env
}

func (env *testEnv) putAssociatedTokenAccount(t *testing.T, wallet ed25519.PublicKey, amount uint64) ed25519.PublicKey {
	address, err := token.GetAssociatedAccount(wallet, env.mint)
	require.NoError(t, err)

	state := token.Account{
		Mint:   env.mint,
		Owner:  wallet,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	env.runtime.Ledger().PutAccount(address, &ledger.Account{
		Lamports: 2_039_280,
		Data:     state.Marshal(),
		Owner:    token.ProgramKey,
	})
	return address
}

func (env *testEnv) tokenBalance(t *testing.T, address ed25519.PublicKey) uint64 {
	account, err := env.runtime.Ledger().GetAccount(address)
	require.NoError(t, err)

	var state token.Account
	require.True(t, state.Unmarshal(account.Data))
	return state.Amount
}

// arm creates the vault on chain and saves the corresponding armed record.
func (env *testEnv) arm(t *testing.T, targetPrice, amount uint64, referrer ed25519.PublicKey) *vault.Record {
	initialize := takeprofit.NewInitializeInstruction(
		&takeprofit.InitializeInstructionAccounts{
			Vault:     env.vaultAddress,
			Custody:   env.custodyAddress,
			Owner:     env.owner,
			TokenMint: env.mint,
		},
		&takeprofit.InitializeInstructionArgs{
			TargetPrice: targetPrice,
			Referrer:    referrer,
		},
	).ToLegacyInstruction()
	funding := token.Transfer(env.ownerTokens, env.custodyAddress, env.owner, amount)

	require.NoError(t, env.runtime.ExecuteTransaction(initialize, funding))

	record := &vault.Record{
		VaultAddress:   base58.Encode(env.vaultAddress),
		CustodyAddress: base58.Encode(env.custodyAddress),
		Owner:          base58.Encode(env.owner),
		Mint:           base58.Encode(env.mint),
		TargetPrice:    targetPrice,
		State:          takeprofit.StateArmed,
		Block:          1,
	}
	if referrer != nil {
		record.Referrer = base58.Encode(referrer)
	}
	require.NoError(t, env.data.Save(env.ctx, record))

	saved, err := env.data.GetByVault(env.ctx, record.VaultAddress)
	require.NoError(t, err)
	return saved
}

func TestExecutor_PriceBelowTarget(t *testing.T) {
	env := setup(t)
	record := env.arm(t, 2_000_000, 1000, nil)

	require.NoError(t, env.service.maybeExecuteVault(env.ctx, record, 1_500_000))

	// Nothing moved on chain or in the store
	_, err := env.runtime.Ledger().GetAccount(env.vaultAddress)
	assert.NoError(t, err)
	assert.EqualValues(t, 1000, env.tokenBalance(t, env.custodyAddress))

	saved, err := env.data.GetByVault(env.ctx, record.VaultAddress)
	require.NoError(t, err)
	assert.Equal(t, takeprofit.StateArmed, saved.State)
}

func TestExecutor_ExecutesAtTarget(t *testing.T) {
	env := setup(t)
	record := env.arm(t, 2_000_000, 1000, nil)

	require.NoError(t, env.service.maybeExecuteVault(env.ctx, record, 2_500_000))

	// Vault and custody are gone; proceeds split 1% protocol, remainder owner
	_, err := env.runtime.Ledger().GetAccount(env.vaultAddress)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
	_, err = env.runtime.Ledger().GetAccount(env.custodyAddress)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	assert.EqualValues(t, 10, env.tokenBalance(t, env.protocolTokens))
	assert.EqualValues(t, 4990, env.tokenBalance(t, env.ownerTokens))

	saved, err := env.data.GetByVault(env.ctx, record.VaultAddress)
	require.NoError(t, err)
	assert.Equal(t, takeprofit.StateExecuted, saved.State)
	assert.EqualValues(t, 2_500_000, saved.ExecutedPrice)
	assert.True(t, saved.Block > record.Block)
}

func TestExecutor_ExecutesWithReferrer(t *testing.T) {
	env := setup(t)

	referrer := newKey(t)
	referrerTokens := env.putAssociatedTokenAccount(t, referrer, 0)

	record := env.arm(t, 2_000_000, 1000, referrer)

	require.NoError(t, env.service.maybeExecuteVault(env.ctx, record, 2_000_000))

	assert.EqualValues(t, 10, env.tokenBalance(t, env.protocolTokens))
	assert.EqualValues(t, 1, env.tokenBalance(t, referrerTokens))
	assert.EqualValues(t, 4989, env.tokenBalance(t, env.ownerTokens))
}

func TestExecutor_VaultAlreadyClosed(t *testing.T) {
	env := setup(t)
	record := env.arm(t, 2_000_000, 1000, nil)

	// Owner cancels out of band
	cancel := takeprofit.NewCancelTakeProfitInstruction(
		&takeprofit.CancelTakeProfitInstructionAccounts{
			Vault:       env.vaultAddress,
			Custody:     env.custodyAddress,
			Owner:       env.owner,
			Destination: env.ownerTokens,
		},
	).ToLegacyInstruction()
	require.NoError(t, env.runtime.ExecuteTransaction(cancel))

	require.NoError(t, env.service.maybeExecuteVault(env.ctx, record, 3_000_000))

	// The crank leaves the record for reconciliation elsewhere
	saved, err := env.data.GetByVault(env.ctx, record.VaultAddress)
	require.NoError(t, err)
	assert.Equal(t, takeprofit.StateArmed, saved.State)
}

func TestExecutor_PriceBatch(t *testing.T) {
	env := setup(t)

	mint := base58.Encode(env.mint)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"` + mint + `":{"id":"` + mint + `","price":"2.5"}}}`))
	}))
	defer server.Close()
	env.service.pricing = jupiter.NewClient(server.URL + "/")

	prices, err := env.service.getPricesForBatch(env.ctx, []*vault.Record{
		{Mint: mint},
		{Mint: mint},
	})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.EqualValues(t, 2_500_000, prices[mint])
}
