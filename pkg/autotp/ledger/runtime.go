package ledger

import (
	"github.com/pkg/errors"

	"github.com/autotp-labs/autotp-server/pkg/solana"
)

// Program executes one instruction against a ledger. Implementations mutate
// the ledger they are handed; the runtime decides whether those mutations
// ever become visible.
type Program interface {
	Execute(l *Ledger, instruction solana.Instruction) error
}

// Runtime routes instructions to program executors and enforces transaction
// atomicity.
type Runtime struct {
	ledger   *Ledger
	programs map[string]Program
}

func NewRuntime() *Runtime {
	r := &Runtime{
		ledger:   New(),
		programs: make(map[string]Program),
	}

	// Builtins every transaction relies on
	r.Register(systemProgramKey, &systemProgram{})
	r.Register(tokenProgramKey, &tokenProgram{})

	return r
}

// Register installs an executor for a program id.
func (r *Runtime) Register(programID []byte, program Program) {
	r.programs[string(programID)] = program
}

// Ledger exposes committed state. Callers must not mutate accounts they
// read; all writes go through ExecuteTransaction.
func (r *Runtime) Ledger() *Ledger {
	return r.ledger
}

// ExecuteTransaction runs the instructions in order against a working copy
// of the ledger. The copy replaces committed state only if every instruction
// succeeds.
func (r *Runtime) ExecuteTransaction(instructions ...solana.Instruction) error {
	working := r.ledger.Clone()

	for i, instruction := range instructions {
		program, ok := r.programs[string(instruction.Program)]
		if !ok {
			return errors.Wrapf(ErrUnknownProgram, "instruction %d", i)
		}

		if err := program.Execute(working, instruction); err != nil {
			return errors.Wrapf(err, "instruction %d failed", i)
		}
	}

	r.ledger = working
	return nil
}
