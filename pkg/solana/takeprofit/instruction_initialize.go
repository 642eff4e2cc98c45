package takeprofit

import (
	"bytes"
	"crypto/ed25519"

	"github.com/autotp-labs/autotp-server/pkg/solana"
)

const initializeInstructionOpcode uint8 = 0

const (
	InitializeInstructionArgsSize = (8 + // target_price
		32) // referrer

	InitializeInstructionDataSize = (1 + // opcode
		InitializeInstructionArgsSize) // args
)

type InitializeInstructionArgs struct {
	TargetPrice uint64
	Referrer    ed25519.PublicKey
}

type InitializeInstructionAccounts struct {
	Vault     ed25519.PublicKey
	Custody   ed25519.PublicKey
	Owner     ed25519.PublicKey
	TokenMint ed25519.PublicKey
}

func NewInitializeInstruction(
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) Instruction {
	var offset int

	referrer := args.Referrer
	if referrer == nil {
		referrer = NoReferrer
	}

	// Serialize instruction arguments
	data := make([]byte, InitializeInstructionDataSize)

	putOpcode(data, initializeInstructionOpcode, &offset)
	putUint64(data, args.TargetPrice, &offset)
	putKey(data, referrer, &offset)

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
				PublicKey:  accounts.TokenMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
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

func InitializeInstructionFromLegacyInstruction(instruction solana.Instruction) (*InitializeInstructionArgs, *InitializeInstructionAccounts, error) {
	var offset int

	if !bytes.Equal(instruction.Program, PROGRAM_ID) {
		return nil, nil, ErrInvalidProgram
	}

	if len(instruction.Data) != InitializeInstructionDataSize {
		return nil, nil, ErrInvalidInstructionData
	}

	if instruction.Data[0] != initializeInstructionOpcode {
		return nil, nil, ErrInvalidInstructionData
	}
	offset += 1

	if len(instruction.Accounts) < 4 {
		return nil, nil, ErrInvalidInstructionData
	}

	var args InitializeInstructionArgs
	var accounts InitializeInstructionAccounts

	// Instruction Args
	getUint64(instruction.Data, &args.TargetPrice, &offset)
	getKey(instruction.Data, &args.Referrer, &offset)

	// Instruction Accounts
	accounts.Vault = instruction.Accounts[0].PublicKey
	accounts.Custody = instruction.Accounts[1].PublicKey
	accounts.Owner = instruction.Accounts[2].PublicKey
	accounts.TokenMint = instruction.Accounts[3].PublicKey

	return &args, &accounts, nil
}
