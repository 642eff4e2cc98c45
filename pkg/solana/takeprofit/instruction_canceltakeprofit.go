package takeprofit

import (
	"bytes"
	"crypto/ed25519"

	"github.com/autotp-labs/autotp-server/pkg/solana"
)

const cancelTakeProfitInstructionOpcode uint8 = 1

const CancelTakeProfitInstructionDataSize = 1 // opcode, no args

type CancelTakeProfitInstructionAccounts struct {
	Vault       ed25519.PublicKey
	Custody     ed25519.PublicKey
	Owner       ed25519.PublicKey
	Destination ed25519.PublicKey
}

func NewCancelTakeProfitInstruction(
	accounts *CancelTakeProfitInstructionAccounts,
) Instruction {
	var offset int

	data := make([]byte, CancelTakeProfitInstructionDataSize)

	putOpcode(data, cancelTakeProfitInstructionOpcode, &offset)

	return Instruction{
		Program: PROGRAM_ID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Custody,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Owner,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Destination,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func CancelTakeProfitInstructionFromLegacyInstruction(instruction solana.Instruction) (*CancelTakeProfitInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ID) {
		return nil, ErrInvalidProgram
	}

	if len(instruction.Data) != CancelTakeProfitInstructionDataSize {
		return nil, ErrInvalidInstructionData
	}

	if instruction.Data[0] != cancelTakeProfitInstructionOpcode {
		return nil, ErrInvalidInstructionData
	}

	if len(instruction.Accounts) < 4 {
		return nil, ErrInvalidInstructionData
	}

	var accounts CancelTakeProfitInstructionAccounts

	// Instruction Accounts
	accounts.Vault = instruction.Accounts[0].PublicKey
	accounts.Custody = instruction.Accounts[1].PublicKey
	accounts.Owner = instruction.Accounts[2].PublicKey
	accounts.Destination = instruction.Accounts[3].PublicKey

	return &accounts, nil
}
