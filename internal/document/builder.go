package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
)

// brasilia is the authority's reference timezone; emission timestamps in any
// other zone get rejected as "issued after reception".
var brasilia = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}()

const issuedAtLayout = "2006-01-02T15:04:05"

// BuildInput gathers everything the builder consumes. All lookups happen
// before Build; the function itself is pure.
type BuildInput struct {
	Order        *orderdomain.Order
	Company      *partydomain.Company
	Counterparty *partydomain.Counterparty
	Nature       *naturedomain.OperationNature
	Rules        taxdomain.RuleSet
	Now          time.Time
	// Disclosure overrides the default IBPT percentages when set.
	Disclosure *DisclosurePercents
}

// Build computes the complete emission payload from an order and its resolved
// tax rules.
func Build(in BuildInput) (*Document, error) {
	order, company, cp, nature := in.Order, in.Company, in.Counterparty, in.Nature
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	regime := strings.TrimSpace(company.RegimeCode)
	if regime == "" {
		return nil, fmt.Errorf("%w: company %s", ErrMissingRegime, company.CNPJ)
	}

	emitterCNPJ := onlyDigits(company.CNPJ)
	if emitterCNPJ == "" {
		return nil, FieldError{Field: "cnpj_emitente", Message: "company registration number is required"}
	}
	emitterIE := strings.TrimSpace(company.StateRegistration)
	if emitterIE == "" {
		return nil, FieldError{Field: "inscricao_estadual_emitente", Message: "company state registration is required"}
	}
	emitterCEP := normalizePostalCode(company.PostalCode)
	if emitterCEP == "00000000" {
		return nil, FieldError{Field: "cep_emitente", Message: "company postal code is required"}
	}

	country := strings.TrimSpace(cp.Country)
	if country == "" {
		country = "Brasil"
	}
	recipientState := strings.ToUpper(strings.TrimSpace(cp.State))
	if country == "Brasil" && len(recipientState) != 2 {
		return nil, fmt.Errorf("%w: counterparty %d", ErrMissingDestination, cp.ID)
	}
	recipientCEP := normalizePostalCode(cp.PostalCode)
	if country == "Brasil" && recipientCEP == "00000000" {
		return nil, FieldError{Field: "cep_destinatario", Message: "counterparty postal code is required"}
	}

	emitterState := strings.ToUpper(strings.TrimSpace(company.State))
	destination := classifyDestination(emitterState, recipientState, country)
	interstate := destination == DestinationInterstate

	cpf, cnpj := splitDocument(cp.Document)
	indicator := ieIndicator(cp, cpf, cnpj)
	endConsumer := deriveEndConsumer(cp, nature, indicator)
	needDifal := destination == DestinationInterstate && endConsumer == "1"

	icmsRule := in.Rules.Get(taxdomain.RuleKindICMS)
	var ruleCFOP, ruleCST string
	var ruleRate, presumptive *decimal.Decimal
	if icmsRule != nil {
		ruleCFOP = strings.TrimSpace(icmsRule.CFOP)
		ruleCST = ExtractSituationCode(icmsRule.SituationCode)
		if icmsRule.Rate.Valid {
			ruleRate = &icmsRule.Rate.Decimal
		}
		if icmsRule.PresumptiveRate.Valid {
			p := icmsRule.PresumptiveRate.Decimal
			if p.IsNegative() {
				return nil, fmt.Errorf("%w: rule %d", ErrNegativePresumptive, icmsRule.ID)
			}
			if p.IsPositive() {
				presumptive = &p
			}
		}
	}

	ipiRule := in.Rules.Get(taxdomain.RuleKindIPI)
	pisRule := in.Rules.Get(taxdomain.RuleKindPIS)
	cofinsRule := in.Rules.Get(taxdomain.RuleKindCOFINS)

	grossValues := make([]decimal.Decimal, len(order.Items))
	productsTotal := decimal.Zero
	for i := range order.Items {
		grossValues[i] = order.Items[i].GrossValue()
		productsTotal = productsTotal.Add(order.Items[i].Subtotal)
	}
	productsTotal = round2(productsTotal)

	freightShares := allocateFreight(order.FreightTotal, grossValues)

	items := make([]Item, 0, len(order.Items))
	for i := range order.Items {
		src := &order.Items[i]
		gross := grossValues[i]

		taxBase := gross
		if nature.FreightInBase {
			taxBase = round2(gross.Add(freightShares[i]))
		}

		cst := ruleCST
		if cst == "" {
			cst = strings.TrimSpace(src.ICMSSituationCode)
		}
		if cst == "" {
			cst = defaultSituation(regime)
		}

		cfopSource := strings.TrimSpace(src.CFOP)
		if cfopSource == "" {
			cfopSource = ruleCFOP
		}
		cfop, err := SanitizeCFOP(cfopSource, interstate)
		if err != nil {
			return nil, err
		}

		barcode := strings.TrimSpace(src.EAN)
		if barcode == "" {
			barcode = "SEM GTIN"
		}

		item := Item{
			Number:              strconv.Itoa(i + 1),
			ProductCode:         productCode(src, i),
			Description:         itemDescription(src),
			CFOP:                cfop,
			CommercialUnit:      unitOrDefault(src.Unit),
			CommercialQuantity:  src.Quantity,
			CommercialUnitValue: round2(src.UnitPrice),
			TaxableUnitValue:    round2(src.UnitPrice),
			TaxableUnit:         unitOrDefault(src.Unit),
			NCM:                 normalizeNCM(src.NCM),
			TaxableQuantity:     src.Quantity,
			GrossValue:          gross,
			CommercialBarcode:   barcode,
			TaxableBarcode:      barcode,
			ICMSSituation:       cst,
			ICMSOrigin:          originOrDefault(src.OriginCode),
		}

		icmsOwnTax(&item, taxBase, cst, regime, ruleRate, presumptive)
		applyPIS(&item, contribution(taxBase, pisRule, strings.TrimSpace(src.PISSituationCode), src.PISRate, regime))
		applyCOFINS(&item, contribution(taxBase, cofinsRule, strings.TrimSpace(src.COFINSSituationCode), src.COFINSRate, regime))

		if ipiRule != nil {
			item.IPISituation = ExtractSituationCode(ipiRule.SituationCode)
			item.IPILegalFramework = strings.TrimSpace(ipiRule.LegalFrameworkCode)
		}

		if needDifal {
			group, err := difalGroup(taxBase, cst, emitterState, recipientState, item.ICMSOrigin, company.SpecialRegime)
			if err != nil {
				return nil, err
			}
			applyDifal(&item, group)
		}

		if freightShares[i].IsPositive() {
			item.FreightValue = ptr(freightShares[i])
		}

		items = append(items, item)
	}

	// Simplified-regime emitters must declare CSOSN, never CST.
	if regime == partydomain.RegimeSimplified {
		for i := range items {
			code := strings.TrimSpace(items[i].ICMSSituation)
			if twoDigits.MatchString(code) {
				items[i].ICMSSituation = SubstituteCSOSN(code)
			}
		}
	}

	now := in.Now.In(brasilia).Format(issuedAtLayout)

	doc := &Document{
		IssuedAt:        now,
		DispatchedAt:    now,
		OperationNature: natureDescription(nature),
		DocumentType:    "1",
		EmissionPurpose: "1",

		EndConsumer:          endConsumer,
		Destination:          destination,
		RecipientIEIndicator: indicator,
		EmitterRegime:        regime,
		BuyerPresence:        normalizePresence(nature.PresenceIndicator),

		EmitterCNPJ:              emitterCNPJ,
		EmitterName:              company.Name,
		EmitterTradeName:         company.TradeName,
		EmitterStreet:            company.Street,
		EmitterNumber:            numberOrDefault(company.Number),
		EmitterDistrict:          company.District,
		EmitterCity:              company.City,
		EmitterState:             emitterState,
		EmitterPostalCode:        emitterCEP,
		EmitterStateRegistration: emitterIE,
		EmitterPhone:             strings.TrimSpace(company.Phone),

		RecipientName:       recipientName(cp),
		RecipientCPF:        cpf,
		RecipientCNPJ:       cnpj,
		RecipientStreet:     cp.Street,
		RecipientNumber:     numberOrDefault(cp.Number),
		RecipientComplement: strings.TrimSpace(cp.Complement),
		RecipientDistrict:   cp.District,
		RecipientCity:       cp.City,
		RecipientState:      recipientState,
		RecipientCountry:    country,
		RecipientPostalCode: recipientCEP,
		RecipientPhone:      cp.ContactPhone(),

		FreightTotal:   round2(order.FreightTotal),
		InsuranceTotal: decimal.Zero,
		Total:          round2(order.Total),
		ProductsTotal:  productsTotal,
		FreightMode:    "0",

		FreightInBase: nature.FreightInBase,

		Items: items,
	}

	doc.RecipientStateRegistration = recipientStateRegistration(cp, indicator, cnpj)

	if order.DiscountTotal.IsPositive() {
		doc.DiscountTotal = ptr(round2(order.DiscountTotal))
	}

	if ind := strings.TrimSpace(nature.IntermediaryIndicator); ind != "" {
		doc.IntermediaryIndicator = ind
		if ind == "1" {
			doc.IntermediaryCNPJ = onlyDigits(nature.IntermediaryCNPJ)
			doc.IntermediaryID = strings.TrimSpace(nature.IntermediaryID)
		}
	}

	disclosure := DefaultDisclosurePercents()
	if in.Disclosure != nil {
		disclosure = *in.Disclosure
	}
	doc.AdditionalInformation = ApplyDisclosureWith(strings.TrimSpace(nature.DisclosureNote), doc.Total, disclosure)

	applyReformTotals(doc, in.Rules, productsTotal)

	return doc, nil
}

// applyReformTotals computes the tax-reform aggregates (IS, IBS, CBS) over
// the products total: rate x base-percent, both from the resolved rule.
func applyReformTotals(doc *Document, rules taxdomain.RuleSet, productsTotal decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	calc := func(rule *taxdomain.TaxRule) *decimal.Decimal {
		if rule == nil {
			return nil
		}
		rate := decimal.Zero
		if rule.Rate.Valid {
			rate = rule.Rate.Decimal
		}
		basePercent := hundred
		if rule.BasePercent.Valid {
			basePercent = rule.BasePercent.Decimal
		}
		value := round2(productsTotal.Mul(basePercent).Div(hundred).Mul(rate).Div(hundred))
		return &value
	}

	doc.SelectiveTaxTotal = calc(rules.Get(taxdomain.RuleKindIS))
	doc.IBSTotal = calc(rules.Get(taxdomain.RuleKindIBS))
	doc.CBSTotal = calc(rules.Get(taxdomain.RuleKindCBS))
}

func deriveEndConsumer(cp *partydomain.Counterparty, nature *naturedomain.OperationNature, indicator int) string {
	if cp.EndConsumer != nil {
		if *cp.EndConsumer {
			return "1"
		}
		return "0"
	}
	if nature.EndConsumer != nil {
		if *nature.EndConsumer {
			return "1"
		}
		return "0"
	}
	// ICMS contributors buy for resale by default.
	if indicator == IEIndicatorContributor {
		return "0"
	}
	return "1"
}

func recipientStateRegistration(cp *partydomain.Counterparty, indicator int, cnpj string) string {
	ie := strings.TrimSpace(cp.StateRegistration)
	upper := strings.ToUpper(ie)
	switch indicator {
	case IEIndicatorContributor:
		if ie == "" {
			return partydomain.StateRegistrationExempt
		}
		return ie
	case IEIndicatorExempt:
		return partydomain.StateRegistrationExempt
	default:
		if cnpj != "" && ie != "" && upper != partydomain.StateRegistrationExempt {
			return ie
		}
		return ""
	}
}

func defaultSituation(regime string) string {
	if regime == partydomain.RegimeNormal {
		return "00"
	}
	return "400"
}

func unitOrDefault(unit string) string {
	if u := strings.TrimSpace(unit); u != "" {
		return u
	}
	return "UN"
}

func originOrDefault(origin string) string {
	if o := strings.TrimSpace(origin); o != "" {
		return o
	}
	return "0"
}

func numberOrDefault(number string) string {
	if n := strings.TrimSpace(number); n != "" {
		return n
	}
	return "S/N"
}

func recipientName(cp *partydomain.Counterparty) string {
	if name := strings.TrimSpace(cp.Name); name != "" {
		return name
	}
	return "Destinatário"
}

func natureDescription(nature *naturedomain.OperationNature) string {
	if desc := strings.TrimSpace(nature.Description); desc != "" {
		return desc
	}
	return "Venda de mercadoria"
}

func productCode(item *orderdomain.OrderItem, idx int) string {
	if code := strings.TrimSpace(item.ProductCode); code != "" {
		return code
	}
	if item.ID != 0 {
		return item.ID.String()
	}
	return strconv.Itoa(idx + 1)
}

func itemDescription(item *orderdomain.OrderItem) string {
	if desc := strings.TrimSpace(item.Description); desc != "" {
		return desc
	}
	return "Item"
}
