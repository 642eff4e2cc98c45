package takeprofit

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultAccount_RoundTrip(t *testing.T) {
	expected := &Vault{
		Owner:             generateKey(t),
		TokenMint:         generateKey(t),
		TargetPrice:       1_500_000,
		Referrer:          generateKey(t),
		CurrentPrice:      0,
		ReadyForExecution: false,
	}

	marshalled := expected.Marshal()
	require.Len(t, marshalled, VaultAccountSize)

	var actual Vault
	require.NoError(t, actual.Unmarshal(marshalled))
	assert.Equal(t, expected, &actual)
}

func TestVaultAccount_ReferrerOffset(t *testing.T) {
	vault := &Vault{
		Owner:       generateKey(t),
		TokenMint:   generateKey(t),
		TargetPrice: 42,
		Referrer:    generateKey(t),
	}

	marshalled := vault.Marshal()
	assert.EqualValues(t, vault.Referrer, marshalled[ReferrerFieldOffset:ReferrerFieldOffset+32])
}

func TestVaultAccount_InvalidData(t *testing.T) {
	vault := &Vault{
		Owner:     generateKey(t),
		TokenMint: generateKey(t),
		Referrer:  NoReferrer,
	}

	var decoded Vault

	marshalled := vault.Marshal()
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(marshalled[:VaultAccountSize-1]))
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(append(marshalled, 0)))

	marshalled[0] += 1
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(marshalled))
}

func TestVaultAccount_HasReferrer(t *testing.T) {
	owner := generateKey(t)

	for _, tc := range []struct {
		referrer ed25519.PublicKey
		expected bool
	}{
		{NoReferrer, false},
		{owner, false},
		{generateKey(t), true},
	} {
		vault := &Vault{
			Owner:    owner,
			Referrer: tc.referrer,
		}
		assert.Equal(t, tc.expected, vault.HasReferrer())
	}
}
