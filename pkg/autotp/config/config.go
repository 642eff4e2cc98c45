package config

import (
	"github.com/mr-tron/base58"
)

// todo: make these environment configs

const (
	// On-chain program the product is built against
	ProgramPublicKey = "4zNsNcDNWFJUPhpBF2j6ZBA4f6arEHn3hEx1osH6Hvkq"

	// Random value. Replace with the real protocol treasury wallet
	ProtocolTreasuryPublicKey = "84ydcM4Yp59W6aZP6eSaKiAMaKidNLfb5k318sT2pm14"

	// Random value. Replace with real subsidizer public keys
	SubsidizerPublicKey = "BVMGLfRgr3nVFCH5DuW6VR2kfSDxq4EFEopXfwCDpYzb"

	// Fee schedule applied on execution, in basis points
	ProtocolFeeBps = 100
	ReferrerFeeBps = 10

	// On-chain prices are u64s scaled by 10^PriceDecimals
	PriceDecimals = 6
)

var (
	ProgramPublicKeyBytes          []byte
	ProtocolTreasuryPublicKeyBytes []byte
)

func init() {
	decoded, err := base58.Decode(ProgramPublicKey)
	if err != nil {
		panic(err)
	}
	ProgramPublicKeyBytes = decoded

	decoded, err = base58.Decode(ProtocolTreasuryPublicKey)
	if err != nil {
		panic(err)
	}
	ProtocolTreasuryPublicKeyBytes = decoded
}
