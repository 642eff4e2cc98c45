package ledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/system"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"
)

func TestLedger_AccountLifecycle(t *testing.T) {
	l := New()
	address := newKey(t)

	_, err := l.GetAccount(address)
	assert.Equal(t, ErrAccountNotFound, err)

	account := &Account{Lamports: 100, Owner: newKey(t)}
	require.NoError(t, l.CreateAccount(address, account))
	assert.Equal(t, ErrAccountAlreadyExists, l.CreateAccount(address, account))

	found, err := l.GetAccount(address)
	require.NoError(t, err)
	assert.EqualValues(t, 100, found.Lamports)

	l.CloseAccount(address)
	_, err = l.GetAccount(address)
	assert.Equal(t, ErrAccountNotFound, err)

	// Closed addresses can be recreated
	require.NoError(t, l.CreateAccount(address, account))
}

func TestLedger_CloneIsolation(t *testing.T) {
	l := New()
	address := newKey(t)
	l.PutAccount(address, &Account{Lamports: 100, Data: []byte{1, 2, 3}})

	clone := l.Clone()
	cloned, err := clone.GetAccount(address)
	require.NoError(t, err)
	cloned.Lamports = 7
	cloned.Data[0] = 9

	original, err := l.GetAccount(address)
	require.NoError(t, err)
	assert.EqualValues(t, 100, original.Lamports)
	assert.EqualValues(t, []byte{1, 2, 3}, original.Data)
}

func TestRuntime_SystemCreateAccount(t *testing.T) {
	r := NewRuntime()
	funder := newKey(t)
	address := newKey(t)
	owner := newKey(t)

	r.Ledger().PutAccount(funder, &Account{Lamports: 1000})

	require.NoError(t, r.ExecuteTransaction(
		system.CreateAccount(funder, address, owner, 400, 10),
	))

	created, err := r.Ledger().GetAccount(address)
	require.NoError(t, err)
	assert.EqualValues(t, 400, created.Lamports)
	assert.Len(t, created.Data, 10)
	assert.EqualValues(t, owner, created.Owner)

	funderAccount, err := r.Ledger().GetAccount(funder)
	require.NoError(t, err)
	assert.EqualValues(t, 600, funderAccount.Lamports)

	// Insufficient lamports roll the transaction back
	err = r.ExecuteTransaction(system.CreateAccount(funder, newKey(t), owner, 10_000, 10))
	require.Error(t, err)
	funderAccount, err = r.Ledger().GetAccount(funder)
	require.NoError(t, err)
	assert.EqualValues(t, 600, funderAccount.Lamports)
}

func TestRuntime_TokenTransfer(t *testing.T) {
	r := NewRuntime()
	mint := newKey(t)
	alice := newKey(t)
	bob := newKey(t)

	source := putTokenAccount(t, r, mint, alice, 100)
	dest := putTokenAccount(t, r, mint, bob, 0)

	require.NoError(t, r.ExecuteTransaction(token.Transfer(source, dest, alice, 60)))
	assert.EqualValues(t, 40, tokenBalance(t, r, source))
	assert.EqualValues(t, 60, tokenBalance(t, r, dest))

	// Overdraw fails and nothing moves
	err := r.ExecuteTransaction(token.Transfer(source, dest, alice, 60))
	assert.ErrorIs(t, err, token.ErrorInsufficientFunds)
	assert.EqualValues(t, 40, tokenBalance(t, r, source))

	// Wrong authority
	err = r.ExecuteTransaction(token.Transfer(source, dest, bob, 10))
	assert.ErrorIs(t, err, token.ErrorOwnerMismatch)
}

func TestRuntime_TokenSelfTransfer(t *testing.T) {
	r := NewRuntime()
	mint := newKey(t)
	alice := newKey(t)

	source := putTokenAccount(t, r, mint, alice, 1000)

	// A no-op, never a balance change
	require.NoError(t, r.ExecuteTransaction(token.Transfer(source, source, alice, 400)))
	assert.EqualValues(t, 1000, tokenBalance(t, r, source))

	// Overdraw still fails
	err := r.ExecuteTransaction(token.Transfer(source, source, alice, 1001))
	assert.ErrorIs(t, err, token.ErrorInsufficientFunds)
	assert.EqualValues(t, 1000, tokenBalance(t, r, source))
}

func TestRuntime_TokenCloseAccount(t *testing.T) {
	r := NewRuntime()
	mint := newKey(t)
	alice := newKey(t)

	source := putTokenAccount(t, r, mint, alice, 10)
	dest := putTokenAccount(t, r, mint, alice, 0)
	r.Ledger().PutAccount(alice, &Account{})

	// Accounts with a balance cannot close
	err := r.ExecuteTransaction(token.CloseAccount(source, alice, alice))
	assert.ErrorIs(t, err, token.ErrorNonNativeHasBalance)

	require.NoError(t, r.ExecuteTransaction(
		token.Transfer(source, dest, alice, 10),
		token.CloseAccount(source, alice, alice),
	))

	_, err = r.Ledger().GetAccount(source)
	assert.Equal(t, ErrAccountNotFound, err)

	recipient, err := r.Ledger().GetAccount(alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2_039_280, recipient.Lamports)
}

func TestRuntime_UnknownProgram(t *testing.T) {
	r := NewRuntime()

	err := r.ExecuteTransaction(solana.NewInstruction(newKey(t), []byte{1}))
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func putTokenAccount(t *testing.T, r *Runtime, mint, wallet ed25519.PublicKey, amount uint64) ed25519.PublicKey {
	address := newKey(t)
	state := token.Account{
		Mint:   mint,
		Owner:  wallet,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	r.Ledger().PutAccount(address, &Account{
		Lamports: 2_039_280,
		Data:     state.Marshal(),
		Owner:    token.ProgramKey,
	})
	return address
}

func tokenBalance(t *testing.T, r *Runtime, address ed25519.PublicKey) uint64 {
	account, err := r.Ledger().GetAccount(address)
	require.NoError(t, err)

	var state token.Account
	require.True(t, state.Unmarshal(account.Data))
	return state.Amount
}

func newKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}
