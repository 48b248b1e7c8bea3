package document

import (
	"strings"

	"github.com/shopspring/decimal"
)

// disclosureMarker starts the approximate-tax block inside the additional
// information text. Everything before it is operator free text and preserved.
const disclosureMarker = "Total aproximado de tributos"

// DisclosurePercents is the IBPT approximate tax burden over the document
// total, split into the federal and state shares.
type DisclosurePercents struct {
	Total   decimal.Decimal
	Federal decimal.Decimal
	State   decimal.Decimal
}

// DefaultDisclosurePercents returns the published IBPT table values.
func DefaultDisclosurePercents() DisclosurePercents {
	return DisclosurePercents{
		Total:   decimal.RequireFromString("15.25"),
		Federal: decimal.RequireFromString("13.45"),
		State:   decimal.RequireFromString("1.8"),
	}
}

// ApplyDisclosure appends the approximate-tax disclosure block to the
// additional-information text, replacing any previous block while keeping the
// operator's free-text prefix.
func ApplyDisclosure(info string, documentTotal decimal.Decimal) string {
	return ApplyDisclosureWith(info, documentTotal, DefaultDisclosurePercents())
}

// ApplyDisclosureWith is ApplyDisclosure with caller-supplied percentages,
// for deployments that track IBPT table updates through policy config.
func ApplyDisclosureWith(info string, documentTotal decimal.Decimal, pct DisclosurePercents) string {
	prefix := info
	if idx := strings.Index(info, disclosureMarker); idx >= 0 {
		prefix = info[:idx]
	}
	prefix = strings.TrimRight(prefix, " \t\r\n")

	if !documentTotal.IsPositive() || !pct.Total.IsPositive() {
		return prefix
	}

	total := round2(documentTotal.Mul(pct.Total).Div(decimal.NewFromInt(100)))
	federal := round2(total.Mul(pct.Federal).Div(pct.Total))
	state := round2(total.Sub(federal))

	block := disclosureMarker + ": R$ " + formatBRL(total) + " (" + formatPercent(pct.Total) + "%) " +
		"Federais R$ " + formatBRL(federal) + " (" + formatPercent(pct.Federal) + "%) " +
		"Estaduais R$ " + formatBRL(state) + " (" + formatPercent(pct.State) + "%). " +
		"Fonte IBPT."

	if prefix == "" {
		return block
	}
	return prefix + "\n\n" + block
}

// formatBRL renders a value with Brazilian separators: 1234.56 -> "1.234,56".
func formatBRL(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + fracPart
	if negative {
		return "-" + out
	}
	return out
}

func formatPercent(d decimal.Decimal) string {
	return strings.ReplaceAll(d.String(), ".", ",")
}
