// Package price handles the fixed-point price representation used on chain.
// Prices are u64 values scaled by 1e6; conversions from decimal quote
// strings go through shopspring/decimal so no float drift ever reaches the
// wire.
package price

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	Decimals      = 6
	QuarksPerUnit = 1_000_000
)

var scale = decimal.New(QuarksPerUnit, 0)

// FromDecimal converts a decimal price to its fixed-point representation,
// truncating precision beyond six decimal places.
func FromDecimal(value decimal.Decimal) (uint64, error) {
	if value.IsNegative() {
		return 0, errors.New("price cannot be negative")
	}

	scaled := value.Mul(scale).Truncate(0)
	if scaled.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return 0, errors.New("price cannot be represented")
	}

	return uint64(scaled.IntPart()), nil
}

// FromString converts a decimal quote string (eg. "2.5") to its fixed-point
// representation.
func FromString(value string) (uint64, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return 0, errors.Wrap(err, "invalid price string")
	}
	return FromDecimal(parsed)
}

// ToDecimal converts a fixed-point price back to a decimal value.
func ToDecimal(value uint64) decimal.Decimal {
	return decimal.New(int64(value), -Decimals)
}

// ToString renders a fixed-point price as a decimal string.
func ToString(value uint64) string {
	return ToDecimal(value).String()
}

// PercentOfHoldings computes a funding amount as a percentage of a token
// balance, truncated to whole token units.
func PercentOfHoldings(balance uint64, percent decimal.Decimal) (uint64, error) {
	if percent.IsNegative() {
		return 0, errors.New("percent cannot be negative")
	}
	if percent.Cmp(decimal.NewFromInt(100)) > 0 {
		return 0, errors.New("percent cannot exceed 100")
	}

	amount := decimal.NewFromInt(int64(balance)).
		Mul(percent).
		Div(decimal.NewFromInt(100)).
		Truncate(0)
	return uint64(amount.IntPart()), nil
}
