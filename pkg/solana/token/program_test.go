package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/system"
)

func TestInitializeAccount(t *testing.T) {
	account := testKey(t)
	mint := testKey(t)
	owner := testKey(t)

	instruction := InitializeAccount(account, mint, owner)

	command, err := GetCommand(instruction)
	require.NoError(t, err)
	assert.Equal(t, CommandInitializeAccount, command)

	decompiled, err := DecompileInitializeAccount(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, account, decompiled.Account)
	assert.EqualValues(t, mint, decompiled.Mint)
	assert.EqualValues(t, owner, decompiled.Owner)

	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.EqualValues(t, system.RentSysVar, instruction.Accounts[3].PublicKey)
}

func TestTransfer(t *testing.T) {
	source := testKey(t)
	dest := testKey(t)
	owner := testKey(t)

	instruction := Transfer(source, dest, owner, 123456)

	decompiled, err := DecompileTransfer(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, source, decompiled.Source)
	assert.EqualValues(t, dest, decompiled.Destination)
	assert.EqualValues(t, owner, decompiled.Owner)
	assert.EqualValues(t, 123456, decompiled.Amount)

	assert.True(t, instruction.Accounts[2].IsSigner)

	// Truncated amount
	truncated := instruction
	truncated.Data = truncated.Data[:5]
	_, err = DecompileTransfer(truncated)
	assert.Error(t, err)

	// Wrong program
	wrongProgram := Transfer(source, dest, owner, 1)
	wrongProgram.Program = testKey(t)
	_, err = DecompileTransfer(wrongProgram)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	// Wrong command
	_, err = DecompileTransfer(CloseAccount(source, dest, owner))
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestCloseAccount(t *testing.T) {
	account := testKey(t)
	dest := testKey(t)
	owner := testKey(t)

	instruction := CloseAccount(account, dest, owner)

	decompiled, err := DecompileCloseAccount(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, account, decompiled.Account)
	assert.EqualValues(t, dest, decompiled.Destination)
	assert.EqualValues(t, owner, decompiled.Owner)

	_, err = DecompileCloseAccount(Transfer(account, dest, owner, 1))
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestGetAssociatedAccount(t *testing.T) {
	wallet := testKey(t)
	mint := testKey(t)

	address, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)

	again, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.EqualValues(t, address, again)

	other, err := GetAssociatedAccount(testKey(t), mint)
	require.NoError(t, err)
	assert.NotEqual(t, address, other)
}
