package document

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyDisclosure_AppendsBlock(t *testing.T) {
	got := ApplyDisclosure("", dec("100.00"))
	assert.Equal(t,
		"Total aproximado de tributos: R$ 15,25 (15,25%) Federais R$ 13,45 (13,45%) Estaduais R$ 1,80 (1,8%). Fonte IBPT.",
		got)
}

func TestApplyDisclosure_PreservesOperatorPrefix(t *testing.T) {
	got := ApplyDisclosure("Garantia de 90 dias.", dec("100.00"))
	assert.True(t, len(got) > 0)
	assert.Contains(t, got, "Garantia de 90 dias.\n\nTotal aproximado de tributos")
}

func TestApplyDisclosure_ReplacesPreviousBlock(t *testing.T) {
	previous := "Garantia de 90 dias.\n\nTotal aproximado de tributos: R$ 1,00 (15,25%) antigo."
	got := ApplyDisclosure(previous, dec("200.00"))
	assert.Contains(t, got, "Garantia de 90 dias.")
	assert.NotContains(t, got, "R$ 1,00")
	assert.Contains(t, got, "Total aproximado de tributos: R$ 30,50 (15,25%)")
}

func TestApplyDisclosure_ZeroTotalKeepsPrefixOnly(t *testing.T) {
	got := ApplyDisclosure("Nota de teste.", decimal.Zero)
	assert.Equal(t, "Nota de teste.", got)
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "0,00", formatBRL(decimal.Zero))
	assert.Equal(t, "1.234,56", formatBRL(dec("1234.56")))
	assert.Equal(t, "1.234.567,80", formatBRL(dec("1234567.8")))
	assert.Equal(t, "-12,30", formatBRL(dec("-12.3")))
}
