package document

import "github.com/shopspring/decimal"

// allocateFreight splits the order's freight across items proportionally to
// each item's share of the products total. A single item takes everything;
// with several, the last item absorbs the rounding remainder so the item sum
// always equals the header total exactly (the authority rejects any drift).
func allocateFreight(freightTotal decimal.Decimal, grossValues []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(grossValues))
	freight := round2(freightTotal)
	if !freight.IsPositive() || len(grossValues) == 0 {
		return shares
	}
	if len(grossValues) == 1 {
		shares[0] = freight
		return shares
	}

	productsTotal := decimal.Zero
	for _, v := range grossValues {
		productsTotal = productsTotal.Add(v)
	}
	if !productsTotal.IsPositive() {
		productsTotal = decimal.NewFromInt(1)
	}

	sum := decimal.Zero
	for i, v := range grossValues {
		shares[i] = round2(v.Div(productsTotal).Mul(freight))
		sum = sum.Add(shares[i])
	}

	if diff := freight.Sub(sum); !diff.IsZero() {
		last := len(shares) - 1
		shares[last] = round2(shares[last].Add(diff))
	}
	return shares
}
