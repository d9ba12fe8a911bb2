package pricing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSingleLine(t *testing.T) {
	sum, err := Compute([]Item{{Qty: 2, UnitPrice: dec("500"), TaxPercentage: dec("12")}})
	require.NoError(t, err)
	require.True(t, sum.Subtotal.Equal(dec("1000")))
	require.True(t, sum.Tax.Equal(dec("120")))
	require.True(t, sum.Total.Equal(dec("1120")))
	require.Equal(t, int64(1120), sum.Rounded)
	require.Len(t, sum.Lines, 1)
}

func TestComputeRoundsOnlyTheFinalTotal(t *testing.T) {
	// 3 x 33.33 = 99.99, tax 5% = 4.9995, total 104.9895
	sum, err := Compute([]Item{
		{Qty: 3, UnitPrice: dec("33.33"), TaxPercentage: dec("5")},
		{Qty: 1, UnitPrice: dec("0.40"), TaxPercentage: dec("0")},
	})
	require.NoError(t, err)
	require.True(t, sum.Subtotal.Equal(dec("100.39")))
	require.True(t, sum.Tax.Equal(dec("4.9995")))
	require.True(t, sum.Total.Equal(dec("105.3895")))
	require.Equal(t, int64(105), sum.Rounded)
}

func TestComputeEmpty(t *testing.T) {
	sum, err := Compute(nil)
	require.NoError(t, err)
	require.True(t, sum.Total.IsZero())
	require.Zero(t, sum.Rounded)
	require.Empty(t, sum.Lines)
}

func TestRoundDown(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1.999", 1},
		{"2", 2},
		{"0.01", 0},
		{"9223372036854775807.99", math.MaxInt64},
	}
	for _, tc := range cases {
		got, err := RoundDown(dec(tc.in))
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	_, err := RoundDown(dec("9223372036854775808"))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestComputeRejectsTotalBeyondInt64(t *testing.T) {
	// 2^60 laptops at 50000 with 18% tax is about 6.8e22.
	_, err := Compute([]Item{{Qty: 1 << 60, UnitPrice: dec("50000"), TaxPercentage: dec("18")}})
	require.ErrorIs(t, err, ErrOutOfRange)
}
