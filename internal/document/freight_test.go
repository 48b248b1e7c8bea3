package document

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFreight_SingleItemTakesAll(t *testing.T) {
	shares := allocateFreight(dec("12.34"), []decimal.Decimal{dec("99.00")})
	require.Len(t, shares, 1)
	assert.True(t, shares[0].Equal(dec("12.34")))
}

func TestAllocateFreight_SumAlwaysExact(t *testing.T) {
	cases := [][]string{
		{"33.33", "33.33", "33.33"},
		{"10.00", "20.00", "70.00"},
		{"0.01", "0.01", "0.01", "0.01", "0.01", "0.01", "0.01"},
		{"1999.99", "0.01"},
	}
	freights := []string{"10.00", "0.03", "7.77", "100.00"}

	for _, values := range cases {
		for _, f := range freights {
			gross := make([]decimal.Decimal, len(values))
			for i, v := range values {
				gross[i] = dec(v)
			}
			shares := allocateFreight(dec(f), gross)
			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s)
			}
			assert.True(t, sum.Equal(dec(f)), "values %v freight %s sum %s", values, f, sum)
		}
	}
}

func TestAllocateFreight_ZeroFreight(t *testing.T) {
	shares := allocateFreight(decimal.Zero, []decimal.Decimal{dec("10.00"), dec("20.00")})
	for _, s := range shares {
		assert.True(t, s.IsZero())
	}
}

func TestAllocateFreight_ProportionalToItemShare(t *testing.T) {
	shares := allocateFreight(dec("10.00"), []decimal.Decimal{dec("75.00"), dec("25.00")})
	require.Len(t, shares, 2)
	assert.True(t, shares[0].Equal(dec("7.50")), "share %s", shares[0])
	assert.True(t, shares[1].Equal(dec("2.50")), "share %s", shares[1])
}
