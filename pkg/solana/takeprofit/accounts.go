package takeprofit

import (
	"bytes"
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58/base58"
)

// Vault is the persistent record for one take-profit position. The owner,
// mint, target price and referrer are fixed at creation; only the execute
// path writes current_price and ready_for_execution, immediately before the
// account is closed.
type Vault struct {
	Owner             ed25519.PublicKey
	TokenMint         ed25519.PublicKey
	TargetPrice       uint64
	Referrer          ed25519.PublicKey
	CurrentPrice      uint64
	ReadyForExecution bool
}

const VaultAccountSize = (8 + // discriminator
	32 + // owner
	32 + // token_mint
	8 + // target_price
	32 + // referrer
	8 + // current_price
	1) // ready_for_execution

// ReferrerFieldOffset is the byte offset of the referrer field, used for
// memcmp account filters in referral queries.
const ReferrerFieldOffset = 8 + 32 + 32 + 8

var vaultAccountDiscriminator = []byte{211, 8, 232, 43, 2, 152, 117, 119}

// HasReferrer reports whether execution should pay a referral share. A zero
// referrer is the "no referrer" sentinel, and a self-referring vault earns
// nothing beyond its own owner share.
func (obj *Vault) HasReferrer() bool {
	if bytes.Equal(obj.Referrer, NoReferrer) {
		return false
	}
	return !bytes.Equal(obj.Referrer, obj.Owner)
}

func (obj *Vault) Clone() *Vault {
	return &Vault{
		Owner:             obj.Owner,
		TokenMint:         obj.TokenMint,
		TargetPrice:       obj.TargetPrice,
		Referrer:          obj.Referrer,
		CurrentPrice:      obj.CurrentPrice,
		ReadyForExecution: obj.ReadyForExecution,
	}
}

func (obj *Vault) ToString() string {
	var owner, tokenMint, referrer string

	if obj.Owner != nil {
		owner = base58.Encode(obj.Owner)
	}
	if obj.TokenMint != nil {
		tokenMint = base58.Encode(obj.TokenMint)
	}
	if obj.Referrer != nil {
		referrer = base58.Encode(obj.Referrer)
	}

	return "Vault{" +
		", owner='" + owner + "'" +
		", token_mint='" + tokenMint + "'" +
		", target_price='" + strconv.FormatUint(obj.TargetPrice, 10) + "'" +
		", referrer='" + referrer + "'" +
		", current_price='" + strconv.FormatUint(obj.CurrentPrice, 10) + "'" +
		", ready_for_execution='" + strconv.FormatBool(obj.ReadyForExecution) + "'" +
		"}"
}

// Marshal serializes the Vault into a buffer of VaultAccountSize bytes.
func (obj *Vault) Marshal() []byte {
	data := make([]byte, VaultAccountSize)

	var offset int

	putDiscriminator(data, vaultAccountDiscriminator, &offset)

	putKey(data, obj.Owner, &offset)
	putKey(data, obj.TokenMint, &offset)
	putUint64(data, obj.TargetPrice, &offset)
	putKey(data, obj.Referrer, &offset)
	putUint64(data, obj.CurrentPrice, &offset)
	putBool(data, obj.ReadyForExecution, &offset)

	return data
}

// Unmarshal deserializes the Vault from the provided account data.
func (obj *Vault) Unmarshal(data []byte) error {
	if len(data) != VaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, vaultAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Owner, &offset)
	getKey(data, &obj.TokenMint, &offset)
	getUint64(data, &obj.TargetPrice, &offset)
	getKey(data, &obj.Referrer, &offset)
	getUint64(data, &obj.CurrentPrice, &offset)
	getBool(data, &obj.ReadyForExecution, &offset)

	return nil
}
