package document

import (
	"github.com/shopspring/decimal"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
)

// contributionResult is the computed PIS or COFINS group of one item.
type contributionResult struct {
	situation string
	base      decimal.Decimal
	rate      decimal.Decimal
	value     decimal.Decimal
}

// contribution resolves one federal contribution (PIS or COFINS) with the
// priority rule > item default > regime default. A zero or absent rate zeroes
// base/rate/value explicitly: the authority schema requires the fields
// present, not omitted.
func contribution(base decimal.Decimal, rule *taxdomain.TaxRule, itemCode string, itemRate decimal.NullDecimal, regimeCode string) contributionResult {
	defaultCode := "01"
	if regimeCode == partydomain.RegimeSimplified {
		defaultCode = "49"
	}

	situation := ""
	if rule != nil {
		situation = ExtractSituationCode(rule.SituationCode)
	}
	if situation == "" {
		situation = itemCode
	}
	if situation == "" {
		situation = defaultCode
	}

	var rate *decimal.Decimal
	if rule != nil && rule.Rate.Valid {
		rate = &rule.Rate.Decimal
	} else if itemRate.Valid {
		rate = &itemRate.Decimal
	}

	if rate == nil || !rate.IsPositive() {
		return contributionResult{
			situation: situation,
			base:      decimal.Zero,
			rate:      decimal.Zero,
			value:     decimal.Zero,
		}
	}

	return contributionResult{
		situation: situation,
		base:      base,
		rate:      *rate,
		value:     round2(base.Mul(*rate).Div(decimal.NewFromInt(100))),
	}
}

func applyPIS(item *Item, r contributionResult) {
	item.PISSituation = r.situation
	item.PISBase = ptr(r.base)
	item.PISRate = ptr(r.rate)
	item.PISValue = ptr(r.value)
}

func applyCOFINS(item *Item, r contributionResult) {
	item.COFINSSituation = r.situation
	item.COFINSBase = ptr(r.base)
	item.COFINSRate = ptr(r.rate)
	item.COFINSValue = ptr(r.value)
}
