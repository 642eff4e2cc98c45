package takeprofit

type VaultState uint8

const (
	StateUnknown VaultState = iota
	StateArmed
	StateCancelled
	StateExecuted
)

func (s VaultState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateArmed:
		return "armed"
	case StateCancelled:
		return "cancelled"
	case StateExecuted:
		return "executed"
	}

	return "unknown"
}

// IsTerminal reports whether the state is one the vault can never leave.
// Terminal vaults are closed on chain; the state only survives in off-chain
// records.
func (s VaultState) IsTerminal() bool {
	return s == StateCancelled || s == StateExecuted
}
