package program

import (
	"bytes"

	"github.com/autotp-labs/autotp-server/pkg/autotp/ledger"
	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"
)

// initialize creates the vault record and its custody token account. Rent
// for both comes out of the owner's lamport balance. Funding the custody
// with tokens is a separate transfer, typically in the same transaction.
func (p *Processor) initialize(
	l *ledger.Ledger,
	instruction solana.Instruction,
	args *takeprofit.InitializeInstructionArgs,
	accounts *takeprofit.InitializeInstructionAccounts,
) error {
	if !instruction.Accounts[2].IsSigner {
		return takeprofit.ErrUnauthorized
	}

	vaultAddress, _, err := takeprofit.GetVaultAddress(&takeprofit.GetVaultAddressArgs{
		Owner: accounts.Owner,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(vaultAddress, accounts.Vault) {
		return takeprofit.ErrInvalidVaultAddress
	}

	custodyAddress, _, err := takeprofit.GetCustodyAddress(&takeprofit.GetCustodyAddressArgs{
		Vault: vaultAddress,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(custodyAddress, accounts.Custody) {
		return takeprofit.ErrInvalidCustodyAddress
	}

	// One vault per owner. An existing vault must be cancelled or executed
	// (which closes it) before a new one can be armed.
	if _, err := l.GetAccount(vaultAddress); err == nil {
		return takeprofit.ErrInvalidVaultState
	}

	owner, err := l.GetAccount(accounts.Owner)
	if err != nil {
		return err
	}

	vaultRent := rentExemptLamports(takeprofit.VaultAccountSize)
	custodyRent := rentExemptLamports(token.AccountSize)
	if owner.Lamports < vaultRent+custodyRent {
		return takeprofit.ErrInsufficientFunds
	}

	vault := takeprofit.Vault{
		Owner:       accounts.Owner,
		TokenMint:   accounts.TokenMint,
		TargetPrice: args.TargetPrice,
		Referrer:    args.Referrer,
	}
	if err := l.CreateAccount(vaultAddress, &ledger.Account{
		Lamports: vaultRent,
		Data:     vault.Marshal(),
		Owner:    takeprofit.PROGRAM_ID,
	}); err != nil {
		return takeprofit.ErrInvalidVaultState
	}

	custody := token.Account{
		Mint:  accounts.TokenMint,
		Owner: vaultAddress,
		State: token.AccountStateInitialized,
	}
	if err := l.CreateAccount(custodyAddress, &ledger.Account{
		Lamports: custodyRent,
		Data:     custody.Marshal(),
		Owner:    token.ProgramKey,
	}); err != nil {
		return takeprofit.ErrInvalidVaultState
	}

	owner.Lamports -= vaultRent + custodyRent
	return nil
}
