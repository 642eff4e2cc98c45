// Package program implements the take-profit vault program: a single vault
// per owner holding tokens in a program-derived custody account, released
// back to the owner on cancel, or split between owner, protocol and referrer
// once the target price is crossed.
package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/autotp-labs/autotp-server/pkg/autotp/config"
	"github.com/autotp-labs/autotp-server/pkg/autotp/ledger"
	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"
)

const (
	// Fee splits applied on execution, in basis points. The owner always
	// receives the exact remainder, so the three shares conserve the custody
	// balance.
	protocolFeeBps = config.ProtocolFeeBps
	referrerFeeBps = config.ReferrerFeeBps
)

// Processor executes take-profit instructions against a ledger. It
// implements ledger.Program.
type Processor struct {
	protocolTreasury ed25519.PublicKey
}

// NewProcessor returns a processor that pays protocol fees to token accounts
// owned by the given treasury wallet.
func NewProcessor(protocolTreasury ed25519.PublicKey) *Processor {
	return &Processor{
		protocolTreasury: protocolTreasury,
	}
}

// Execute decodes and runs a single instruction. Decoding errors surface
// before any account is touched.
func (p *Processor) Execute(l *ledger.Ledger, instruction solana.Instruction) error {
	if !bytes.Equal(instruction.Program, takeprofit.PROGRAM_ID) {
		return takeprofit.ErrInvalidProgram
	}

	if len(instruction.Data) == 0 {
		return takeprofit.ErrMalformedInstruction
	}

	switch instruction.Data[0] {
	case 0:
		args, accounts, err := takeprofit.InitializeInstructionFromLegacyInstruction(instruction)
		if err != nil {
			return takeprofit.ErrMalformedInstruction
		}
		return p.initialize(l, instruction, args, accounts)
	case 1:
		accounts, err := takeprofit.CancelTakeProfitInstructionFromLegacyInstruction(instruction)
		if err != nil {
			return takeprofit.ErrMalformedInstruction
		}
		return p.cancel(l, instruction, accounts)
	case 2:
		args, accounts, err := takeprofit.ExecuteTakeProfitInstructionFromLegacyInstruction(instruction)
		if err != nil {
			return takeprofit.ErrMalformedInstruction
		}
		return p.execute(l, args, accounts)
	}

	return takeprofit.ErrUnknownInstruction
}

// loadVault reads and validates the vault account at the given address.
func (p *Processor) loadVault(l *ledger.Ledger, address ed25519.PublicKey) (*takeprofit.Vault, *ledger.Account, error) {
	account, err := l.GetAccount(address)
	if err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(account.Owner, takeprofit.PROGRAM_ID) {
		return nil, nil, takeprofit.ErrInvalidVaultAddress
	}

	var vault takeprofit.Vault
	if err := vault.Unmarshal(account.Data); err != nil {
		return nil, nil, err
	}
	return &vault, account, nil
}

// loadTokenState reads and validates the token account at the given address.
func (p *Processor) loadTokenState(l *ledger.Ledger, address ed25519.PublicKey) (*token.Account, error) {
	account, err := l.GetAccount(address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(account.Owner, token.ProgramKey) {
		return nil, takeprofit.ErrUnauthorized
	}

	var state token.Account
	if !state.Unmarshal(account.Data) || state.State != token.AccountStateInitialized {
		return nil, takeprofit.ErrUnauthorized
	}
	return &state, nil
}

func (p *Processor) putTokenState(l *ledger.Ledger, address ed25519.PublicKey, state *token.Account) error {
	account, err := l.GetAccount(address)
	if err != nil {
		return err
	}
	account.Data = state.Marshal()
	return nil
}

// creditToken adds an amount to the token account at the given address. The
// state is read back immediately before the write, so multiple credits to
// the same account accumulate rather than overwrite each other.
func (p *Processor) creditToken(l *ledger.Ledger, address ed25519.PublicKey, amount uint64) error {
	state, err := p.loadTokenState(l, address)
	if err != nil {
		return err
	}
	state.Amount += amount
	return p.putTokenState(l, address, state)
}

// validateDestination checks that a destination is an initialized token
// account for the vault's mint, owned by the expected wallet.
func (p *Processor) validateDestination(l *ledger.Ledger, address, wallet, mint ed25519.PublicKey) (*token.Account, error) {
	state, err := p.loadTokenState(l, address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(state.Owner, wallet) {
		return nil, takeprofit.ErrUnauthorized
	}
	if !bytes.Equal(state.Mint, mint) {
		return nil, takeprofit.ErrUnauthorized
	}
	return state, nil
}

// creditLamports adds reclaimed rent to an account, creating a system-owned
// entry when the recipient does not exist yet.
func creditLamports(l *ledger.Ledger, address ed25519.PublicKey, lamports uint64) {
	account, err := l.GetAccount(address)
	if err != nil {
		account = &ledger.Account{
			Owner: make(ed25519.PublicKey, ed25519.PublicKeySize),
		}
		l.PutAccount(address, account)
	}
	account.Lamports += lamports
}

// rentExemptLamports is the minimum balance for an account of the given size
// to be exempt from rent collection.
//
// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/rent.rs
func rentExemptLamports(size uint64) uint64 {
	const (
		accountStorageOverhead  = 128
		lamportsPerByteYear     = 3480
		exemptionThresholdYears = 2
	)
	return (accountStorageOverhead + size) * lamportsPerByteYear * exemptionThresholdYears
}
