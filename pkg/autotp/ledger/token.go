package ledger

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"
)

var tokenProgramKey = []byte(token.ProgramKey)

// tokenProgram implements the subset of the SPL token program the vault
// flows need: InitializeAccount, Transfer and CloseAccount.
type tokenProgram struct{}

func (p *tokenProgram) Execute(l *Ledger, instruction solana.Instruction) error {
	command, err := token.GetCommand(instruction)
	if err != nil {
		return err
	}

	switch command {
	case token.CommandInitializeAccount:
		return p.initializeAccount(l, instruction)
	case token.CommandTransfer:
		return p.transfer(l, instruction)
	case token.CommandCloseAccount:
		return p.closeAccount(l, instruction)
	}

	return token.ErrorInvalidInstruction
}

func (p *tokenProgram) initializeAccount(l *Ledger, instruction solana.Instruction) error {
	decompiled, err := token.DecompileInitializeAccount(instruction)
	if err != nil {
		return err
	}

	account, err := l.GetAccount(decompiled.Account)
	if err != nil {
		return err
	}
	if !bytes.Equal(account.Owner, token.ProgramKey) {
		return errors.New("account not owned by the token program")
	}
	if len(account.Data) != token.AccountSize {
		return errors.New("account not sized for token state")
	}

	var state token.Account
	if state.Unmarshal(account.Data) && state.State != token.AccountStateUninitialized {
		return token.ErrorAlreadyInUse
	}

	state = token.Account{
		Mint:  decompiled.Mint,
		Owner: decompiled.Owner,
		State: token.AccountStateInitialized,
	}
	account.Data = state.Marshal()
	return nil
}

func (p *tokenProgram) transfer(l *Ledger, instruction solana.Instruction) error {
	decompiled, err := token.DecompileTransfer(instruction)
	if err != nil {
		return err
	}

	if !instruction.Accounts[2].IsSigner {
		return errors.New("transfer authority must sign")
	}

	source, err := p.getTokenState(l, decompiled.Source)
	if err != nil {
		return err
	}
	dest, err := p.getTokenState(l, decompiled.Destination)
	if err != nil {
		return err
	}

	if !bytes.Equal(source.Owner, decompiled.Owner) {
		return token.ErrorOwnerMismatch
	}
	if !bytes.Equal(source.Mint, dest.Mint) {
		return token.ErrorMintMismatch
	}
	if source.Amount < decompiled.Amount {
		return token.ErrorInsufficientFunds
	}

	// Self-transfers are a no-op, matching the SPL token program
	if bytes.Equal(decompiled.Source, decompiled.Destination) {
		return nil
	}

	source.Amount -= decompiled.Amount
	dest.Amount += decompiled.Amount

	if err := p.putTokenState(l, decompiled.Source, source); err != nil {
		return err
	}
	return p.putTokenState(l, decompiled.Destination, dest)
}

func (p *tokenProgram) closeAccount(l *Ledger, instruction solana.Instruction) error {
	decompiled, err := token.DecompileCloseAccount(instruction)
	if err != nil {
		return err
	}

	if !instruction.Accounts[2].IsSigner {
		return errors.New("close authority must sign")
	}

	state, err := p.getTokenState(l, decompiled.Account)
	if err != nil {
		return err
	}
	if !bytes.Equal(state.Owner, decompiled.Owner) {
		return token.ErrorOwnerMismatch
	}
	if state.Amount != 0 {
		return token.ErrorNonNativeHasBalance
	}

	account, err := l.GetAccount(decompiled.Account)
	if err != nil {
		return err
	}
	destination, err := l.GetAccount(decompiled.Destination)
	if err != nil {
		return err
	}

	destination.Lamports += account.Lamports
	l.CloseAccount(decompiled.Account)
	return nil
}

func (p *tokenProgram) getTokenState(l *Ledger, address []byte) (*token.Account, error) {
	account, err := l.GetAccount(address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(account.Owner, token.ProgramKey) {
		return nil, errors.New("account not owned by the token program")
	}

	var state token.Account
	if !state.Unmarshal(account.Data) {
		return nil, token.ErrorUninitializedState
	}
	if state.State != token.AccountStateInitialized {
		return nil, token.ErrorUninitializedState
	}
	return &state, nil
}

func (p *tokenProgram) putTokenState(l *Ledger, address []byte, state *token.Account) error {
	account, err := l.GetAccount(address)
	if err != nil {
		return err
	}
	account.Data = state.Marshal()
	return nil
}
