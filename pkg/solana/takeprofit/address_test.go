package takeprofit

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autotp-labs/autotp-server/pkg/solana"
)

func TestGetVaultAddress(t *testing.T) {
	owner := generateKey(t)

	address, bump, err := GetVaultAddress(&GetVaultAddressArgs{
		Owner: owner,
	})
	require.NoError(t, err)

	// Derivation is deterministic
	other, otherBump, err := GetVaultAddress(&GetVaultAddressArgs{
		Owner: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, address, other)
	assert.Equal(t, bump, otherBump)

	// The bump reproduces the address directly
	direct, err := solana.CreateProgramAddress(
		PROGRAM_ID,
		vaultPrefix,
		owner,
		[]byte{bump},
	)
	require.NoError(t, err)
	assert.Equal(t, address, direct)

	// Different owners land on different vaults
	address2, _, err := GetVaultAddress(&GetVaultAddressArgs{
		Owner: generateKey(t),
	})
	require.NoError(t, err)
	assert.NotEqual(t, address, address2)
}

func TestGetCustodyAddress(t *testing.T) {
	vault, _, err := GetVaultAddress(&GetVaultAddressArgs{
		Owner: generateKey(t),
	})
	require.NoError(t, err)

	custody, bump, err := GetCustodyAddress(&GetCustodyAddressArgs{
		Vault: vault,
	})
	require.NoError(t, err)
	assert.NotEqual(t, vault, custody)

	direct, err := solana.CreateProgramAddress(
		PROGRAM_ID,
		custodyPrefix,
		vault,
		[]byte{bump},
	)
	require.NoError(t, err)
	assert.Equal(t, custody, direct)
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}
