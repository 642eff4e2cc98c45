// Package client composes the unsigned transactions the product's front-end
// submits: arming, cancelling, and executing take-profit orders, plus the
// reads backing the orders table and referral dashboard.
package client

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"

	"github.com/autotp-labs/autotp-server/pkg/autotp/config"
	"github.com/autotp-labs/autotp-server/pkg/autotp/price"
)

var (
	// ErrOrderNotFound indicates no vault exists for the owner. Cancelled and
	// executed vaults cease to exist, so they report the same way as vaults
	// that were never armed.
	ErrOrderNotFound = errors.New("take-profit order not found")

	// ErrOrderExists indicates the owner already has an armed vault.
	ErrOrderExists = errors.New("take-profit order already exists")
)

// VaultAccounts are the derived addresses backing one owner's take-profit
// order.
type VaultAccounts struct {
	Vault       ed25519.PublicKey
	VaultBump   uint8
	Custody     ed25519.PublicKey
	CustodyBump uint8
}

// DeriveVaultAccounts derives the vault and custody addresses for an owner
// without a ledger round trip. The derivation is pure; repeated calls always
// agree.
func DeriveVaultAccounts(owner ed25519.PublicKey) (*VaultAccounts, error) {
	vault, vaultBump, err := takeprofit.GetVaultAddress(&takeprofit.GetVaultAddressArgs{
		Owner: owner,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving vault address")
	}

	custody, custodyBump, err := takeprofit.GetCustodyAddress(&takeprofit.GetCustodyAddressArgs{
		Vault: vault,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving custody address")
	}

	return &VaultAccounts{
		Vault:       vault,
		VaultBump:   vaultBump,
		Custody:     custody,
		CustodyBump: custodyBump,
	}, nil
}

type Client struct {
	sc               solana.Client
	protocolTreasury ed25519.PublicKey
}

func NewClient(sc solana.Client, protocolTreasury ed25519.PublicKey) *Client {
	return &Client{
		sc:               sc,
		protocolTreasury: protocolTreasury,
	}
}

// NewProtocolClient returns a client bound to the protocol's configured
// treasury.
func NewProtocolClient(sc solana.Client) *Client {
	return NewClient(sc, ed25519.PublicKey(config.ProtocolTreasuryPublicKeyBytes))
}

// CreateTakeProfitOrderArgs describes a new order. The funding amount is a
// percentage of the owner's current holdings of the mint, matching the way
// orders are sized in the product.
type CreateTakeProfitOrderArgs struct {
	TargetPrice       decimal.Decimal
	PercentOfHoldings decimal.Decimal

	// Optional; nil arms the vault without a referral
	Referrer ed25519.PublicKey
}

// CreateTakeProfitOrder builds the unsigned transaction arming a vault:
// the initialize instruction followed by the custody funding transfer, atomic
// as a pair. The owner signs and submits it.
func (c *Client) CreateTakeProfitOrder(
	ctx context.Context,
	owner ed25519.PublicKey,
	mint ed25519.PublicKey,
	args *CreateTakeProfitOrderArgs,
) (solana.Transaction, error) {
	var txn solana.Transaction

	accounts, err := DeriveVaultAccounts(owner)
	if err != nil {
		return txn, err
	}

	_, err = c.sc.GetAccountInfo(accounts.Vault, solana.CommitmentFinalized)
	if err == nil {
		return txn, ErrOrderExists
	} else if err != solana.ErrNoAccountInfo {
		return txn, errors.Wrap(err, "error fetching vault account")
	}

	targetPrice, err := price.FromDecimal(args.TargetPrice)
	if err != nil {
		return txn, errors.Wrap(err, "invalid target price")
	}

	ownerTokens, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return txn, errors.Wrap(err, "error deriving owner token account")
	}

	ownerAccount, err := token.NewClient(c.sc, mint).GetAccount(ownerTokens, solana.CommitmentFinalized)
	if err != nil {
		return txn, errors.Wrap(err, "error fetching owner holdings")
	}

	amount, err := price.PercentOfHoldings(ownerAccount.Amount, args.PercentOfHoldings)
	if err != nil {
		return txn, errors.Wrap(err, "invalid funding percentage")
	}
	if amount == 0 {
		return txn, errors.New("funding amount is zero")
	}

	initialize := takeprofit.NewInitializeInstruction(
		&takeprofit.InitializeInstructionAccounts{
			Vault:     accounts.Vault,
			Custody:   accounts.Custody,
			Owner:     owner,
			TokenMint: mint,
		},
		&takeprofit.InitializeInstructionArgs{
			TargetPrice: targetPrice,
			Referrer:    args.Referrer,
		},
	).ToLegacyInstruction()
	funding := token.Transfer(ownerTokens, accounts.Custody, owner, amount)

	return c.buildTransaction(owner, initialize, funding)
}

// CancelTakeProfitOrder builds the unsigned transaction disarming the owner's
// vault, returning the full custody balance to the owner's token account.
func (c *Client) CancelTakeProfitOrder(ctx context.Context, owner ed25519.PublicKey) (solana.Transaction, error) {
	var txn solana.Transaction

	accounts, err := DeriveVaultAccounts(owner)
	if err != nil {
		return txn, err
	}

	vaultAccount, err := c.GetVault(ctx, owner)
	if err != nil {
		return txn, err
	}

	destination, err := token.GetAssociatedAccount(owner, vaultAccount.TokenMint)
	if err != nil {
		return txn, errors.Wrap(err, "error deriving owner token account")
	}

	cancel := takeprofit.NewCancelTakeProfitInstruction(
		&takeprofit.CancelTakeProfitInstructionAccounts{
			Vault:       accounts.Vault,
			Custody:     accounts.Custody,
			Owner:       owner,
			Destination: destination,
		},
	).ToLegacyInstruction()

	return c.buildTransaction(owner, cancel)
}

// ExecuteTakeProfitOrder builds the unsigned transaction executing an owner's
// vault at the provided price. Execution is permissionless; the payer only
// covers fees and can be any party.
func (c *Client) ExecuteTakeProfitOrder(
	ctx context.Context,
	payer ed25519.PublicKey,
	owner ed25519.PublicKey,
	currentPrice decimal.Decimal,
) (solana.Transaction, error) {
	var txn solana.Transaction

	accounts, err := DeriveVaultAccounts(owner)
	if err != nil {
		return txn, err
	}

	vaultAccount, err := c.GetVault(ctx, owner)
	if err != nil {
		return txn, err
	}

	currentPriceQuarks, err := price.FromDecimal(currentPrice)
	if err != nil {
		return txn, errors.Wrap(err, "invalid current price")
	}

	destinationUser, err := token.GetAssociatedAccount(vaultAccount.Owner, vaultAccount.TokenMint)
	if err != nil {
		return txn, errors.Wrap(err, "error deriving owner destination")
	}
	destinationProtocol, err := token.GetAssociatedAccount(c.protocolTreasury, vaultAccount.TokenMint)
	if err != nil {
		return txn, errors.Wrap(err, "error deriving protocol destination")
	}

	destinationReferrer := destinationUser
	if vaultAccount.HasReferrer() {
		destinationReferrer, err = token.GetAssociatedAccount(vaultAccount.Referrer, vaultAccount.TokenMint)
		if err != nil {
			return txn, errors.Wrap(err, "error deriving referrer destination")
		}
	}

	execute := takeprofit.NewExecuteTakeProfitInstruction(
		&takeprofit.ExecuteTakeProfitInstructionAccounts{
			Vault:               accounts.Vault,
			Custody:             accounts.Custody,
			DestinationUser:     destinationUser,
			DestinationProtocol: destinationProtocol,
			DestinationReferrer: destinationReferrer,
			Owner:               vaultAccount.Owner,
		},
		&takeprofit.ExecuteTakeProfitInstructionArgs{
			CurrentPrice: currentPriceQuarks,
		},
	).ToLegacyInstruction()

	return c.buildTransaction(payer, execute)
}

// GetVault fetches and decodes the owner's vault record. Closed or never
// created vaults report ErrOrderNotFound.
func (c *Client) GetVault(ctx context.Context, owner ed25519.PublicKey) (*takeprofit.Vault, error) {
	accounts, err := DeriveVaultAccounts(owner)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.sc.GetAccountInfo(accounts.Vault, solana.CommitmentFinalized)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error fetching vault account")
	}

	var vaultAccount takeprofit.Vault
	if err := vaultAccount.Unmarshal(accountInfo.Data); err != nil {
		return nil, errors.Wrap(err, "invalid vault account data")
	}
	return &vaultAccount, nil
}

// GetVaultsByReferrer finds all live vaults crediting a referrer, via the
// referrer field's fixed byte offset inside the vault record.
func (c *Client) GetVaultsByReferrer(ctx context.Context, referrer ed25519.PublicKey) ([]string, error) {
	addresses, _, err := c.sc.GetFilteredProgramAccounts(
		takeprofit.PROGRAM_ID,
		takeprofit.ReferrerFieldOffset,
		referrer,
	)
	if err != nil {
		return nil, errors.Wrap(err, "error filtering program accounts")
	}
	return addresses, nil
}

func (c *Client) buildTransaction(payer ed25519.PublicKey, instructions ...solana.Instruction) (solana.Transaction, error) {
	txn := solana.NewTransaction(payer, instructions...)

	bh, err := c.sc.GetLatestBlockhash()
	if err != nil {
		return txn, errors.Wrap(err, "error fetching latest blockhash")
	}
	txn.SetBlockhash(bh)

	return txn, nil
}
