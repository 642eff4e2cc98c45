package takeprofit

import "fmt"

type TakeProfitError uint32

const (
	// Target price not reached
	ErrTargetNotReached TakeProfitError = iota + 0x1770

	// Unauthorized action
	ErrUnauthorized

	// Provided vault account does not match the derived address
	ErrInvalidVaultAddress

	// Provided custody token account does not match the derived address
	ErrInvalidCustodyAddress

	// Instruction not valid for the vault's current lifecycle state
	ErrInvalidVaultState

	// Instruction data is the wrong length for its opcode
	ErrMalformedInstruction

	// Instruction opcode is not part of the program
	ErrUnknownInstruction

	// Transfer amount exceeds the custody balance
	ErrInsufficientFunds
)

func (e TakeProfitError) Error() string {
	switch e {
	case ErrTargetNotReached:
		return "target price not reached"
	case ErrUnauthorized:
		return "unauthorized action"
	case ErrInvalidVaultAddress:
		return "invalid vault address"
	case ErrInvalidCustodyAddress:
		return "invalid custody address"
	case ErrInvalidVaultState:
		return "invalid vault state"
	case ErrMalformedInstruction:
		return "malformed instruction data"
	case ErrUnknownInstruction:
		return "unknown instruction"
	case ErrInsufficientFunds:
		return "insufficient custody funds"
	}

	return fmt.Sprintf("unknown take profit error: %d", uint32(e))
}
