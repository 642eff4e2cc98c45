package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountState_RoundTrip(t *testing.T) {
	native := uint64(2_039_280)
	expected := Account{
		Mint:            testKey(t),
		Owner:           testKey(t),
		Amount:          1000,
		Delegate:        testKey(t),
		State:           AccountStateInitialized,
		IsNative:        &native,
		DelegatedAmount: 12,
		CloseAuthority:  testKey(t),
	}

	marshalled := expected.Marshal()
	require.Len(t, marshalled, AccountSize)

	var actual Account
	require.True(t, actual.Unmarshal(marshalled))
	assert.Equal(t, expected, actual)
}

func TestAccountState_OptionalFieldsUnset(t *testing.T) {
	expected := Account{
		Mint:   testKey(t),
		Owner:  testKey(t),
		Amount: 42,
		State:  AccountStateInitialized,
	}

	var actual Account
	require.True(t, actual.Unmarshal(expected.Marshal()))
	assert.Nil(t, actual.Delegate)
	assert.Nil(t, actual.IsNative)
	assert.Nil(t, actual.CloseAuthority)
	assert.Equal(t, expected, actual)
}

func TestAccountState_InvalidSize(t *testing.T) {
	var account Account
	assert.False(t, account.Unmarshal(make([]byte, AccountSize-1)))
	assert.False(t, account.Unmarshal(make([]byte, AccountSize+1)))
}

func testKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}
