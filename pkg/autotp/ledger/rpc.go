package ledger

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"
)

// RPCClient adapts a Runtime to the solana.Client interface, so code written
// against the RPC surface can run against the in-memory ledger. Submitted
// transactions execute with real program semantics.
type RPCClient struct {
	runtime *Runtime
	slot    uint64
}

func NewRPCClient(runtime *Runtime) *RPCClient {
	return &RPCClient{
		runtime: runtime,
		slot:    1,
	}
}

// Slot returns the simulated slot, which advances on every submitted
// transaction.
func (c *RPCClient) Slot() uint64 {
	return c.slot
}

func (c *RPCClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	acc, err := c.runtime.Ledger().GetAccount(account)
	if err != nil {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return solana.AccountInfo{
		Owner:    acc.Owner,
		Data:     acc.Data,
		Lamports: acc.Lamports,
	}, nil
}

func (c *RPCClient) GetBalance(account ed25519.PublicKey) (uint64, error) {
	acc, err := c.runtime.Ledger().GetAccount(account)
	if err != nil {
		return 0, solana.ErrNoBalance
	}
	return acc.Lamports, nil
}

func (c *RPCClient) GetLatestBlockhash() (solana.Blockhash, error) {
	return solana.Blockhash{1}, nil
}

func (c *RPCClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return (128 + size) * 3480 * 2, nil
}

func (c *RPCClient) GetTokenAccountBalance(account ed25519.PublicKey) (uint64, uint64, error) {
	acc, err := c.runtime.Ledger().GetAccount(account)
	if err != nil {
		return 0, 0, solana.ErrNoBalance
	}

	var state token.Account
	if !state.Unmarshal(acc.Data) {
		return 0, 0, solana.ErrNoBalance
	}
	return state.Amount, c.slot, nil
}

func (c *RPCClient) GetFilteredProgramAccounts(program ed25519.PublicKey, offset uint, filterValue []byte) ([]string, uint64, error) {
	return c.runtime.Ledger().FilterAccounts(program, offset, filterValue), c.slot, nil
}

func (c *RPCClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.slot++
	return txn.Signatures[0], c.runtime.ExecuteTransaction(decompileMessage(txn.Message)...)
}

func (c *RPCClient) SubmitRawTransaction(raw []byte, commitment solana.Commitment) (string, error) {
	var txn solana.Transaction
	if err := txn.Unmarshal(raw); err != nil {
		return "", err
	}
	sig, err := c.SubmitTransaction(txn, commitment)
	return base58.Encode(sig[:]), err
}

// decompileMessage recovers instructions with signer/writable flags from a
// compiled legacy message.
func decompileMessage(m solana.Message) []solana.Instruction {
	numSigned := int(m.Header.NumSignatures)
	numWritableSigned := numSigned - int(m.Header.NumReadonlySigned)
	numWritableUnsigned := len(m.Accounts) - numSigned - int(m.Header.NumReadOnly)

	metaAt := func(index int) solana.AccountMeta {
		meta := solana.AccountMeta{PublicKey: m.Accounts[index]}
		if index < numSigned {
			meta.IsSigner = true
			meta.IsWritable = index < numWritableSigned
		} else {
			meta.IsWritable = index-numSigned < numWritableUnsigned
		}
		return meta
	}

	res := make([]solana.Instruction, 0, len(m.Instructions))
	for _, c := range m.Instructions {
		instruction := solana.Instruction{
			Program: m.Accounts[c.ProgramIndex],
			Data:    c.Data,
		}
		for _, accountIndex := range c.Accounts {
			instruction.Accounts = append(instruction.Accounts, metaAt(int(accountIndex)))
		}
		res = append(res, instruction)
	}
	return res
}

var _ solana.Client = (*RPCClient)(nil)
