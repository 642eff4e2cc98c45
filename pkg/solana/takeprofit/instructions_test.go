package takeprofit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeInstruction_RoundTrip(t *testing.T) {
	expectedArgs := &InitializeInstructionArgs{
		TargetPrice: 2_000_000,
		Referrer:    generateKey(t),
	}
	expectedAccounts := &InitializeInstructionAccounts{
		Vault:     generateKey(t),
		Custody:   generateKey(t),
		Owner:     generateKey(t),
		TokenMint: generateKey(t),
	}

	instruction := NewInitializeInstruction(expectedAccounts, expectedArgs)
	require.Len(t, instruction.Data, InitializeInstructionDataSize)
	assert.EqualValues(t, 0, instruction.Data[0])

	legacy := instruction.ToLegacyInstruction()

	actualArgs, actualAccounts, err := InitializeInstructionFromLegacyInstruction(legacy)
	require.NoError(t, err)
	assert.Equal(t, expectedArgs, actualArgs)
	assert.Equal(t, expectedAccounts, actualAccounts)

	assert.True(t, legacy.Accounts[2].IsSigner)
	assert.True(t, legacy.Accounts[2].IsWritable)
	assert.EqualValues(t, SYSTEM_PROGRAM_ID, legacy.Accounts[4].PublicKey)
	assert.EqualValues(t, SPL_TOKEN_PROGRAM_ID, legacy.Accounts[5].PublicKey)
}

func TestInitializeInstruction_NoReferrer(t *testing.T) {
	instruction := NewInitializeInstruction(
		&InitializeInstructionAccounts{
			Vault:     generateKey(t),
			Custody:   generateKey(t),
			Owner:     generateKey(t),
			TokenMint: generateKey(t),
		},
		&InitializeInstructionArgs{
			TargetPrice: 1,
		},
	)

	args, _, err := InitializeInstructionFromLegacyInstruction(instruction.ToLegacyInstruction())
	require.NoError(t, err)
	assert.EqualValues(t, NoReferrer, args.Referrer)
}

func TestCancelTakeProfitInstruction_RoundTrip(t *testing.T) {
	expectedAccounts := &CancelTakeProfitInstructionAccounts{
		Vault:       generateKey(t),
		Custody:     generateKey(t),
		Owner:       generateKey(t),
		Destination: generateKey(t),
	}

	instruction := NewCancelTakeProfitInstruction(expectedAccounts)
	require.Len(t, instruction.Data, CancelTakeProfitInstructionDataSize)
	assert.EqualValues(t, 1, instruction.Data[0])

	actualAccounts, err := CancelTakeProfitInstructionFromLegacyInstruction(instruction.ToLegacyInstruction())
	require.NoError(t, err)
	assert.Equal(t, expectedAccounts, actualAccounts)
}

func TestExecuteTakeProfitInstruction_RoundTrip(t *testing.T) {
	expectedArgs := &ExecuteTakeProfitInstructionArgs{
		CurrentPrice: 2_500_000,
	}
	expectedAccounts := &ExecuteTakeProfitInstructionAccounts{
		Vault:               generateKey(t),
		Custody:             generateKey(t),
		DestinationUser:     generateKey(t),
		DestinationProtocol: generateKey(t),
		DestinationReferrer: generateKey(t),
		Owner:               generateKey(t),
	}

	instruction := NewExecuteTakeProfitInstruction(expectedAccounts, expectedArgs)
	require.Len(t, instruction.Data, ExecuteTakeProfitInstructionDataSize)
	assert.EqualValues(t, 2, instruction.Data[0])

	actualArgs, actualAccounts, err := ExecuteTakeProfitInstructionFromLegacyInstruction(instruction.ToLegacyInstruction())
	require.NoError(t, err)
	assert.Equal(t, expectedArgs, actualArgs)
	assert.Equal(t, expectedAccounts, actualAccounts)
}

func TestInstructionDecoding_InvalidData(t *testing.T) {
	instruction := NewExecuteTakeProfitInstruction(
		&ExecuteTakeProfitInstructionAccounts{
			Vault:               generateKey(t),
			Custody:             generateKey(t),
			DestinationUser:     generateKey(t),
			DestinationProtocol: generateKey(t),
			DestinationReferrer: generateKey(t),
			Owner:               generateKey(t),
		},
		&ExecuteTakeProfitInstructionArgs{
			CurrentPrice: 1,
		},
	)

	// Wrong program
	legacy := instruction.ToLegacyInstruction()
	legacy.Program = generateKey(t)
	_, _, err := ExecuteTakeProfitInstructionFromLegacyInstruction(legacy)
	assert.Equal(t, ErrInvalidProgram, err)

	// Truncated args
	legacy = instruction.ToLegacyInstruction()
	legacy.Data = legacy.Data[:ExecuteTakeProfitInstructionDataSize-1]
	_, _, err = ExecuteTakeProfitInstructionFromLegacyInstruction(legacy)
	assert.Equal(t, ErrInvalidInstructionData, err)

	// Wrong opcode
	legacy = instruction.ToLegacyInstruction()
	legacy.Data[0] = 42
	_, _, err = ExecuteTakeProfitInstructionFromLegacyInstruction(legacy)
	assert.Equal(t, ErrInvalidInstructionData, err)
}
