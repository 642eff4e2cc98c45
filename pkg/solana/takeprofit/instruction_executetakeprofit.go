package takeprofit

import (
	"bytes"
	"crypto/ed25519"

	"github.com/autotp-labs/autotp-server/pkg/solana"
)

const executeTakeProfitInstructionOpcode uint8 = 2

const (
	ExecuteTakeProfitInstructionArgsSize = 8 // current_price

	ExecuteTakeProfitInstructionDataSize = (1 + // opcode
		ExecuteTakeProfitInstructionArgsSize) // args
)

type ExecuteTakeProfitInstructionArgs struct {
	CurrentPrice uint64
}

type ExecuteTakeProfitInstructionAccounts struct {
	Vault               ed25519.PublicKey
	Custody             ed25519.PublicKey
	DestinationUser     ed25519.PublicKey
	DestinationProtocol ed25519.PublicKey
	DestinationReferrer ed25519.PublicKey
	Owner               ed25519.PublicKey
}

func NewExecuteTakeProfitInstruction(
	accounts *ExecuteTakeProfitInstructionAccounts,
	args *ExecuteTakeProfitInstructionArgs,
) Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, ExecuteTakeProfitInstructionDataSize)

	putOpcode(data, executeTakeProfitInstructionOpcode, &offset)
	putUint64(data, args.CurrentPrice, &offset)

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
				PublicKey:  accounts.DestinationUser,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DestinationProtocol,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DestinationReferrer,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Owner,
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

func ExecuteTakeProfitInstructionFromLegacyInstruction(instruction solana.Instruction) (*ExecuteTakeProfitInstructionArgs, *ExecuteTakeProfitInstructionAccounts, error) {
	var offset int

	if !bytes.Equal(instruction.Program, PROGRAM_ID) {
		return nil, nil, ErrInvalidProgram
	}

	if len(instruction.Data) != ExecuteTakeProfitInstructionDataSize {
		return nil, nil, ErrInvalidInstructionData
	}

	if instruction.Data[0] != executeTakeProfitInstructionOpcode {
		return nil, nil, ErrInvalidInstructionData
	}
	offset += 1

	if len(instruction.Accounts) < 6 {
		return nil, nil, ErrInvalidInstructionData
	}

	var args ExecuteTakeProfitInstructionArgs
	var accounts ExecuteTakeProfitInstructionAccounts

	// Instruction Args
	getUint64(instruction.Data, &args.CurrentPrice, &offset)

	// Instruction Accounts
	accounts.Vault = instruction.Accounts[0].PublicKey
	accounts.Custody = instruction.Accounts[1].PublicKey
	accounts.DestinationUser = instruction.Accounts[2].PublicKey
	accounts.DestinationProtocol = instruction.Accounts[3].PublicKey
	accounts.DestinationReferrer = instruction.Accounts[4].PublicKey
	accounts.Owner = instruction.Accounts[5].PublicKey

	return &args, &accounts, nil
}
