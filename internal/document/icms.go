package document

import (
	"fmt"

	"github.com/shopspring/decimal"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	"github.com/smallbiznis/fiscal/internal/tax/rates"
)

// icmsOwnTax fills the emitter-side ICMS group on an item. The base-modality
// flag is set for every taxed CST; the full base/rate/value group is computed
// only for CST 00 (integrally taxed). Under the normal regime a configured
// presumptive rate overrides the rule rate. The interstate rate is never used
// here.
func icmsOwnTax(item *Item, base decimal.Decimal, cst, regimeCode string, ruleRate, presumptive *decimal.Decimal) {
	if !cstIsTaxed(cst) {
		return
	}
	// modBC 3 = operation value; the schema orders modBC before vBC.
	item.ICMSBaseModality = "3"

	if cst != "00" {
		return
	}

	rate := decimal.Zero
	if regimeCode == partydomain.RegimeNormal && presumptive != nil {
		rate = *presumptive
	} else if ruleRate != nil {
		rate = *ruleRate
	}

	item.ICMSBase = ptr(base)
	item.ICMSRate = ptr(rate)
	item.ICMSValue = ptr(round2(base.Mul(rate).Div(decimal.NewFromInt(100))))
}

// difalGroup computes the interstate differential destined to the receiving
// state. Both official rates are mandatory; missing rate data is a hard error,
// never approximated. Special-regime emitters keep the computed rates but
// report zero base and value.
func difalGroup(base decimal.Decimal, cst, originState, destinationState, merchandiseOrigin string, specialRegime bool) (*Item, error) {
	if !codeOwesDifal(cst) {
		return nil, nil
	}

	interstate, ok := rates.Interstate(originState, destinationState, merchandiseOrigin)
	if !ok {
		return nil, fmt.Errorf("%w: origin %q destination %q", ErrMissingInterstate, originState, destinationState)
	}
	intrastate, ok := rates.Intrastate(destinationState)
	if !ok || !intrastate.IsPositive() {
		return nil, fmt.Errorf("%w: %q", ErrMissingIntrastate, destinationState)
	}

	difalBase := base
	value := decimal.Zero
	diff := intrastate.Sub(interstate)
	if diff.IsPositive() {
		value = round2(base.Mul(diff).Div(decimal.NewFromInt(100)))
	}
	if specialRegime {
		difalBase = decimal.Zero
		value = decimal.Zero
	}

	group := &Item{
		DifalBase:             ptr(difalBase),
		DifalIntrastateRate:   ptr(intrastate),
		DifalInterstateRate:   ptr(interstate),
		DifalShare:            ptr(decimal.NewFromInt(100)),
		FCPRate:               ptr(decimal.Zero),
		FCPValue:              ptr(decimal.Zero),
		FCPBase:               ptr(decimal.Zero),
		DifalOriginValue:      ptr(decimal.Zero),
		DifalDestinationValue: ptr(value),
	}
	return group, nil
}

func applyDifal(item *Item, group *Item) {
	if group == nil {
		return
	}
	item.DifalBase = group.DifalBase
	item.DifalIntrastateRate = group.DifalIntrastateRate
	item.DifalInterstateRate = group.DifalInterstateRate
	item.DifalShare = group.DifalShare
	item.FCPRate = group.FCPRate
	item.FCPValue = group.FCPValue
	item.FCPBase = group.FCPBase
	item.DifalOriginValue = group.DifalOriginValue
	item.DifalDestinationValue = group.DifalDestinationValue
}

// hasValidDifal reports whether an item already carries a consistent
// differential group, so re-normalization preserves operator-provided values.
func hasValidDifal(item *Item) bool {
	if item.DifalIntrastateRate == nil || item.DifalInterstateRate == nil {
		return false
	}
	if !item.DifalIntrastateRate.IsPositive() {
		return false
	}
	inter := *item.DifalInterstateRate
	for _, valid := range []int64{4, 7, 12} {
		if inter.Equal(decimal.NewFromInt(valid)) {
			return true
		}
	}
	return false
}
