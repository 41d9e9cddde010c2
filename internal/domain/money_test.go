package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"19.99", 1999},
		{"19.995", 2000}, // half-up
		{"0", 0},
		{"0.01", 1},
		{"50.00", 5000},
		{"8.50", 850},
		{"108.50", 10850},
		{"2.005", 201},
	}

	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			require.NoError(t, err)
			assert.Equal(t, tc.want, MinorUnits(amount))
		})
	}
}

func TestMinorUnitsExactForTwoDecimalPrices(t *testing.T) {
	// Every price representable to 2 decimal places must convert exactly.
	for cents := int64(0); cents <= 10000; cents += 7 {
		amount := decimal.New(cents, -2)
		assert.Equal(t, cents, MinorUnits(amount), "amount %s", amount)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "19.99", FormatMinorUnits(1999))
	assert.Equal(t, "0.00", FormatMinorUnits(0))
	assert.Equal(t, "108.50", FormatMinorUnits(10850))
	assert.Equal(t, "0.05", FormatMinorUnits(5))
}
