package document

import (
	"strings"

	"github.com/shopspring/decimal"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
)

// NormalizeOptions carries the company facts re-normalization needs.
type NormalizeOptions struct {
	Regime          string
	SpecialRegime   bool
	PresumptiveRate *decimal.Decimal
}

// Normalize re-derives the computed portions of an externally supplied
// document (an operator-edited draft): CFOP direction per destination, ICMS
// base and own tax, the interstate differential, and the CST to CSOSN
// substitution. Consistent manual edits are kept; an item that already
// carries a valid differential group is preserved.
func Normalize(doc *Document, opts NormalizeOptions) error {
	if doc == nil || len(doc.Items) == 0 {
		return nil
	}

	emitterState := strings.ToUpper(strings.TrimSpace(doc.EmitterState))
	recipientState := strings.ToUpper(strings.TrimSpace(doc.RecipientState))
	interstate := len(emitterState) == 2 && len(recipientState) == 2 && emitterState != recipientState

	needDifal := doc.Destination == DestinationInterstate &&
		strings.TrimSpace(doc.EndConsumer) == "1" &&
		len(recipientState) == 2

	for i := range doc.Items {
		item := &doc.Items[i]

		cfopSource := strings.TrimSpace(item.CFOP)
		if cfopSource == "" {
			cfopSource = "108"
		}
		cfop, err := SanitizeCFOP(cfopSource, interstate)
		if err != nil {
			return err
		}
		item.CFOP = cfop

		cst := strings.TrimSpace(item.ICMSSituation)
		if !codeOwesDifal(cst) {
			continue
		}

		base := itemTaxBase(item, doc.FreightInBase)
		item.ICMSBase = ptr(base)

		if cstIsTaxed(cst) {
			var ruleRate *decimal.Decimal
			if item.ICMSRate != nil && item.ICMSRate.IsPositive() {
				ruleRate = item.ICMSRate
			}
			icmsOwnTax(item, base, cst, opts.Regime, ruleRate, opts.PresumptiveRate)
		}

		if needDifal && !hasValidDifal(item) {
			group, err := difalGroup(base, cst, emitterState, recipientState, item.ICMSOrigin, opts.SpecialRegime)
			if err != nil {
				return err
			}
			applyDifal(item, group)
		}
	}

	if opts.Regime == partydomain.RegimeSimplified {
		for i := range doc.Items {
			code := strings.TrimSpace(doc.Items[i].ICMSSituation)
			if twoDigits.MatchString(code) {
				doc.Items[i].ICMSSituation = SubstituteCSOSN(code)
			}
		}
	}

	return nil
}

// itemTaxBase keeps a manually edited base when present, otherwise derives it
// from gross value plus the item's freight share when freight joins the base.
func itemTaxBase(item *Item, freightInBase bool) decimal.Decimal {
	if item.ICMSBase != nil && !item.ICMSBase.IsZero() {
		return round2(*item.ICMSBase)
	}

	gross := item.GrossValue
	if gross.IsZero() {
		qty := item.CommercialQuantity
		if qty.IsZero() {
			qty = item.TaxableQuantity
		}
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		gross = qty.Mul(item.CommercialUnitValue)
	}

	if freightInBase && item.FreightValue != nil {
		gross = gross.Add(*item.FreightValue)
	}
	return round2(gross)
}
