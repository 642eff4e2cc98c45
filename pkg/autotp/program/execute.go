package program

import (
	"bytes"

	"github.com/autotp-labs/autotp-server/pkg/autotp/ledger"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
)

// execute releases the custody balance once the reported price crosses the
// vault's target. The balance splits three ways: a protocol fee, a referral
// fee when the vault carries a referrer, and the exact remainder to the
// owner. Both program accounts close, with rent reclaimed to the owner.
//
// Execution is permissionless; the price gate is the only trigger condition,
// so any crank may submit it.
func (p *Processor) execute(
	l *ledger.Ledger,
	args *takeprofit.ExecuteTakeProfitInstructionArgs,
	accounts *takeprofit.ExecuteTakeProfitInstructionAccounts,
) error {
	vault, vaultAccount, err := p.loadVault(l, accounts.Vault)
	if err != nil {
		return err
	}

	vaultAddress, _, err := takeprofit.GetVaultAddress(&takeprofit.GetVaultAddressArgs{
		Owner: vault.Owner,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(vaultAddress, accounts.Vault) {
		return takeprofit.ErrInvalidVaultAddress
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

	if args.CurrentPrice < vault.TargetPrice {
		return takeprofit.ErrTargetNotReached
	}

	// Rent must be reclaimed by the vault's owner, not the submitter
	if !bytes.Equal(vault.Owner, accounts.Owner) {
		return takeprofit.ErrUnauthorized
	}

	if _, err := p.validateDestination(l, accounts.DestinationUser, vault.Owner, vault.TokenMint); err != nil {
		return err
	}
	if _, err := p.validateDestination(l, accounts.DestinationProtocol, p.protocolTreasury, vault.TokenMint); err != nil {
		return err
	}

	custody, err := p.loadTokenState(l, accounts.Custody)
	if err != nil {
		return err
	}

	amount := custody.Amount
	protocolShare := amount * protocolFeeBps / 10_000

	// Sentinel and self-referring vaults pay no referral fee; the share
	// folds into the owner remainder.
	var referrerShare uint64
	if vault.HasReferrer() {
		if _, err := p.validateDestination(l, accounts.DestinationReferrer, vault.Referrer, vault.TokenMint); err != nil {
			return err
		}
		referrerShare = amount * referrerFeeBps / 10_000
	}

	// Owner takes the exact remainder, so the split conserves the balance
	userShare := amount - protocolShare - referrerShare

	// Destinations may alias the same token account (a treasury-owned vault,
	// or a vault whose referrer is the treasury), so each credit re-reads
	// the account state immediately before writing.
	if err := p.creditToken(l, accounts.DestinationUser, userShare); err != nil {
		return err
	}
	if err := p.creditToken(l, accounts.DestinationProtocol, protocolShare); err != nil {
		return err
	}
	if referrerShare > 0 {
		if err := p.creditToken(l, accounts.DestinationReferrer, referrerShare); err != nil {
			return err
		}
	}

	// Record the trigger before the account closes. Off-chain indexers read
	// these fields from the final account state in the transaction.
	vault.CurrentPrice = args.CurrentPrice
	vault.ReadyForExecution = true
	vaultAccount.Data = vault.Marshal()

	custodyAccount, err := l.GetAccount(accounts.Custody)
	if err != nil {
		return err
	}

	reclaimed := custodyAccount.Lamports + vaultAccount.Lamports
	l.CloseAccount(accounts.Custody)
	l.CloseAccount(accounts.Vault)
	creditLamports(l, vault.Owner, reclaimed)

	return nil
}

var _ ledger.Program = (*Processor)(nil)
