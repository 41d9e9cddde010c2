package domain

import "github.com/shopspring/decimal"

var minorFactor = decimal.NewFromInt(100)

// MinorUnits converts a decimal currency amount into integer minor units
// using half-up rounding. This is the single place currency precision is
// handled; the conversion is exact for any amount representable to two
// decimal places.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorFactor).Round(0).IntPart()
}

// FormatMinorUnits renders an amount of minor units as a two-decimal string
// ("1999" cents -> "19.99"), the representation the fulfillment provider
// expects for cost breakdowns.
func FormatMinorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
