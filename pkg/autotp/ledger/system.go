package ledger

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/system"
)

var systemProgramKey = []byte(system.ProgramKey)

// systemProgram implements the subset of the system program that account
// creation flows need.
type systemProgram struct{}

func (p *systemProgram) Execute(l *Ledger, instruction solana.Instruction) error {
	decompiled, err := system.DecompileCreateAccount(instruction)
	if err != nil {
		return err
	}

	if !instruction.Accounts[0].IsSigner {
		return errors.New("funder must sign")
	}

	funder, err := l.GetAccount(decompiled.Funder)
	if err != nil {
		return errors.Wrap(err, "funder does not exist")
	}
	if funder.Lamports < decompiled.Lamports {
		return errors.New("funder has insufficient lamports")
	}

	owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(owner, decompiled.Owner)

	created := &Account{
		Lamports: decompiled.Lamports,
		Data:     make([]byte, decompiled.Size),
		Owner:    owner,
	}
	if err := l.CreateAccount(decompiled.Address, created); err != nil {
		return err
	}

	funder.Lamports -= decompiled.Lamports
	return nil
}
