package takeprofit

import (
	"crypto/ed25519"

	"github.com/autotp-labs/autotp-server/pkg/solana"
)

var (
	vaultPrefix   = []byte("vault")
	custodyPrefix = []byte("token-account")
)

type GetVaultAddressArgs struct {
	Owner ed25519.PublicKey
}

type GetCustodyAddressArgs struct {
	Vault ed25519.PublicKey
}

// GetVaultAddress derives the vault record address for an owner. One vault
// exists per owner; the seeds are exactly "vault" and the owner key under
// the program id.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		vaultPrefix,
		args.Owner,
	)
}

// GetCustodyAddress derives the custody token account address for a vault.
// Deriving from the vault address (never caller input) is what prevents
// custody substitution.
func GetCustodyAddress(args *GetCustodyAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		custodyPrefix,
		args.Vault,
	)
}
