package program

import (
	"bytes"

	"github.com/autotp-labs/autotp-server/pkg/autotp/ledger"
	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

// cancel refunds the full custody balance to an owner token account and
// closes both the custody and the vault, reclaiming rent to the owner.
func (p *Processor) cancel(
	l *ledger.Ledger,
	instruction solana.Instruction,
	accounts *takeprofit.CancelTakeProfitInstructionAccounts,
) error {
	if !instruction.Accounts[2].IsSigner {
		return takeprofit.ErrUnauthorized
	}

	vault, vaultAccount, err := p.loadVault(l, accounts.Vault)
	if err != nil {
		return err
	}

	// Only the recorded owner may cancel
	if !bytes.Equal(vault.Owner, accounts.Owner) {
		return takeprofit.ErrUnauthorized
	}

	custodyAddress, _, err := takeprofit.GetCustodyAddress(&takeprofit.GetCustodyAddressArgs{
		Vault: accounts.Vault,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(custodyAddress, accounts.Custody) {
		return takeprofit.ErrInvalidCustodyAddress
	}

	destination, err := p.validateDestination(l, accounts.Destination, vault.Owner, vault.TokenMint)
	if err != nil {
		return err
	}

	custody, err := p.loadTokenState(l, accounts.Custody)
	if err != nil {
		return err
	}

	// Full refund
	destination.Amount += custody.Amount
	custody.Amount = 0

	if err := p.putTokenState(l, accounts.Destination, destination); err != nil {
		return err
	}

	custodyAccount, err := l.GetAccount(accounts.Custody)
	if err != nil {
		return err
	}

	// Close both accounts; rent goes back to the owner
	reclaimed := custodyAccount.Lamports + vaultAccount.Lamports
	l.CloseAccount(accounts.Custody)
	l.CloseAccount(accounts.Vault)
	creditLamports(l, vault.Owner, reclaimed)

	return nil
}
