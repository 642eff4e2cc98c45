// Package ledger provides an in-memory Solana-style account runtime. It is
// the execution substrate for the take-profit program: accounts are owned by
// programs, instructions route to registered program executors, and a
// transaction either commits every account mutation or none of them.
package ledger

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	// ErrAccountNotFound indicates there is no account at the given address.
	// Closed accounts cease to exist, so lookups after a close land here.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists indicates an account creation collided with an
	// existing account.
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrUnknownProgram indicates an instruction targets a program with no
	// registered executor.
	ErrUnknownProgram = errors.New("unknown program")
)

// Account is a single ledger entry.
type Account struct {
	Lamports uint64
	Data     []byte
	Owner    ed25519.PublicKey
}

func (a *Account) Clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)

	owner := make(ed25519.PublicKey, len(a.Owner))
	copy(owner, a.Owner)

	return &Account{
		Lamports: a.Lamports,
		Data:     data,
		Owner:    owner,
	}
}

// Ledger maps addresses to accounts.
type Ledger struct {
	accounts map[string]*Account
}

func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*Account),
	}
}

func (l *Ledger) GetAccount(address ed25519.PublicKey) (*Account, error) {
	account, ok := l.accounts[string(address)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (l *Ledger) PutAccount(address ed25519.PublicKey, account *Account) {
	l.accounts[string(address)] = account
}

func (l *Ledger) CreateAccount(address ed25519.PublicKey, account *Account) error {
	if _, ok := l.accounts[string(address)]; ok {
		return ErrAccountAlreadyExists
	}
	l.accounts[string(address)] = account
	return nil
}

// CloseAccount removes the account entirely. There is no tombstone; the
// address can be recreated later.
func (l *Ledger) CloseAccount(address ed25519.PublicKey) {
	delete(l.accounts, string(address))
}

// FilterAccounts returns the base58 addresses of all accounts owned by the
// program whose data matches filterValue at the given byte offset.
func (l *Ledger) FilterAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) []string {
	var res []string
	for address, account := range l.accounts {
		if !bytes.Equal(account.Owner, program) {
			continue
		}
		end := int(offset) + len(filterValue)
		if end > len(account.Data) {
			continue
		}
		if bytes.Equal(account.Data[offset:end], filterValue) {
			res = append(res, base58.Encode([]byte(address)))
		}
	}
	return res
}

func (l *Ledger) Clone() *Ledger {
	accounts := make(map[string]*Account, len(l.accounts))
	for address, account := range l.accounts {
		accounts[address] = account.Clone()
	}
	return &Ledger{
		accounts: accounts,
	}
}
