package document

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNode, _ = snowflake.NewNode(1)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCompany(regime string) *partydomain.Company {
	return &partydomain.Company{
		ID:                testNode.Generate(),
		Name:              "Comercio de Pecas Ltda",
		CNPJ:              "12.345.678/0001-95",
		StateRegistration: "1234567890",
		RegimeCode:        regime,
		Street:            "Rua das Flores",
		Number:            "100",
		District:          "Centro",
		City:              "Belo Horizonte",
		State:             "MG",
		PostalCode:        "30100-000",
	}
}

func testCounterparty(state string) *partydomain.Counterparty {
	return &partydomain.Counterparty{
		ID:         testNode.Generate(),
		Name:       "Joao da Silva",
		Document:   "123.456.789-09",
		Street:     "Av. Brasil",
		Number:     "2000",
		District:   "Jardim",
		City:       "Cidade",
		State:      state,
		Country:    "Brasil",
		PostalCode: "20000-000",
	}
}

func testNature() *naturedomain.OperationNature {
	return &naturedomain.OperationNature{
		ID:            testNode.Generate(),
		Description:   "Venda de mercadoria",
		FreightInBase: true,
		Series:        "1",
	}
}

func testOrder(companyID, counterpartyID snowflake.ID, items ...orderdomain.OrderItem) *orderdomain.Order {
	total := decimal.Zero
	for i := range items {
		items[i].ID = testNode.Generate()
		total = total.Add(items[i].Subtotal)
	}
	return &orderdomain.Order{
		ID:             testNode.Generate(),
		CompanyID:      companyID,
		CounterpartyID: counterpartyID,
		Total:          total,
		Items:          items,
	}
}

func icmsRule(rate string, cst, cfop string) *taxdomain.TaxRule {
	return &taxdomain.TaxRule{
		ID:            testNode.Generate(),
		Kind:          taxdomain.RuleKindICMS,
		Destinations:  "any",
		SituationCode: cst,
		CFOP:          cfop,
		Rate:          decimal.NewNullDecimal(dec(rate)),
	}
}

func TestBuild_ICMSOwnTaxSameState(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, doc.Items, 1)
	item := doc.Items[0]
	assert.Equal(t, DestinationSameState, doc.Destination)
	assert.Equal(t, "5102", item.CFOP)
	assert.Equal(t, "3", item.ICMSBaseModality)
	require.NotNil(t, item.ICMSBase)
	assert.True(t, item.ICMSBase.Equal(dec("100.00")), "base %s", item.ICMSBase)
	require.NotNil(t, item.ICMSValue)
	assert.True(t, item.ICMSValue.Equal(dec("18.00")), "value %s", item.ICMSValue)
	// Same state, no differential group.
	assert.Nil(t, item.DifalDestinationValue)
}

func TestBuild_DifalInterstateEndConsumer(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("BA") // MG -> BA is the general 12% lane, BA internal 19%
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	item := doc.Items[0]
	assert.Equal(t, DestinationInterstate, doc.Destination)
	assert.Equal(t, "1", doc.EndConsumer)
	assert.Equal(t, "6102", item.CFOP)
	require.NotNil(t, item.DifalDestinationValue)
	// round2(100 * (19 - 12) / 100) = 7.00
	assert.True(t, item.DifalDestinationValue.Equal(dec("7.00")), "difal %s", item.DifalDestinationValue)
	require.NotNil(t, item.DifalShare)
	assert.True(t, item.DifalShare.Equal(dec("100")))
	require.NotNil(t, item.FCPValue)
	assert.True(t, item.FCPValue.IsZero())
}

func TestBuild_SpecialRegimeZeroesDifalBaseKeepsRates(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	company.SpecialRegime = true
	cp := testCounterparty("BA")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	item := doc.Items[0]
	require.NotNil(t, item.DifalBase)
	assert.True(t, item.DifalBase.IsZero())
	require.NotNil(t, item.DifalDestinationValue)
	assert.True(t, item.DifalDestinationValue.IsZero())
	require.NotNil(t, item.DifalIntrastateRate)
	assert.True(t, item.DifalIntrastateRate.Equal(dec("19")))
	require.NotNil(t, item.DifalInterstateRate)
	assert.True(t, item.DifalInterstateRate.Equal(dec("12")))
}

func TestBuild_NoDifalWhenNotEndConsumer(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("BA")
	cp.Document = "11.222.333/0001-81"
	cp.ICMSContributor = true
	cp.StateRegistration = "123456789"
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, IEIndicatorContributor, doc.RecipientIEIndicator)
	assert.Equal(t, "0", doc.EndConsumer)
	assert.Nil(t, doc.Items[0].DifalDestinationValue)
}

func TestBuild_SimplifiedRegimeSubstitutesCSOSN(t *testing.T) {
	company := testCompany(partydomain.RegimeSimplified)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("2"),
		UnitPrice:   dec("50.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "102", doc.Items[0].ICMSSituation)
	// Simplified regime defaults the contribution code to 49.
	assert.Equal(t, "49", doc.Items[0].PISSituation)
	assert.Equal(t, "49", doc.Items[0].COFINSSituation)
}

func TestBuild_PresumptiveRateOverridesUnderNormalRegime(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("200.00"),
		Subtotal:    dec("200.00"),
	})

	rule := icmsRule("18", "00", "5102")
	rule.PresumptiveRate = decimal.NewNullDecimal(dec("3.2"))

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: rule},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	item := doc.Items[0]
	require.NotNil(t, item.ICMSRate)
	assert.True(t, item.ICMSRate.Equal(dec("3.2")))
	require.NotNil(t, item.ICMSValue)
	assert.True(t, item.ICMSValue.Equal(dec("6.40")), "value %s", item.ICMSValue)
}

func TestBuild_PISCOFINSZeroRateIsExplicit(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	item := doc.Items[0]
	assert.Equal(t, "01", item.PISSituation)
	require.NotNil(t, item.PISBase)
	assert.True(t, item.PISBase.IsZero())
	require.NotNil(t, item.PISRate)
	assert.True(t, item.PISRate.IsZero())
	require.NotNil(t, item.PISValue)
	assert.True(t, item.PISValue.IsZero())
}

func TestBuild_PISRuleRateComputesValue(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	pis := &taxdomain.TaxRule{
		ID:            testNode.Generate(),
		Kind:          taxdomain.RuleKindPIS,
		Destinations:  "any",
		SituationCode: "01 - Operação Tributável",
		Rate:          decimal.NewNullDecimal(dec("1.65")),
	}

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules: taxdomain.RuleSet{
			taxdomain.RuleKindICMS: icmsRule("18", "00", "5102"),
			taxdomain.RuleKindPIS:  pis,
		},
		Now: time.Now(),
	})
	require.NoError(t, err)

	item := doc.Items[0]
	assert.Equal(t, "01", item.PISSituation)
	require.NotNil(t, item.PISBase)
	assert.True(t, item.PISBase.Equal(dec("100.00")))
	require.NotNil(t, item.PISValue)
	assert.True(t, item.PISValue.Equal(dec("1.65")), "value %s", item.PISValue)
}

func TestBuild_FreightAllocationExact(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID,
		orderdomain.OrderItem{Description: "A", Quantity: dec("1"), UnitPrice: dec("33.33"), Subtotal: dec("33.33")},
		orderdomain.OrderItem{Description: "B", Quantity: dec("1"), UnitPrice: dec("33.33"), Subtotal: dec("33.33")},
		orderdomain.OrderItem{Description: "C", Quantity: dec("1"), UnitPrice: dec("33.33"), Subtotal: dec("33.33")},
	)
	order.FreightTotal = dec("10.00")
	order.Total = dec("109.99")

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range doc.Items {
		require.NotNil(t, item.FreightValue)
		sum = sum.Add(*item.FreightValue)
	}
	assert.True(t, sum.Equal(dec("10.00")), "freight sum %s", sum)
}

func TestBuild_ReformTotals(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("1000.00"),
		Subtotal:    dec("1000.00"),
	})

	ibs := &taxdomain.TaxRule{
		ID:           testNode.Generate(),
		Kind:         taxdomain.RuleKindIBS,
		Destinations: "any",
		Rate:         decimal.NewNullDecimal(dec("8.8")),
		BasePercent:  decimal.NewNullDecimal(dec("50")),
	}

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules: taxdomain.RuleSet{
			taxdomain.RuleKindICMS: icmsRule("18", "00", "5102"),
			taxdomain.RuleKindIBS:  ibs,
		},
		Now: time.Now(),
	})
	require.NoError(t, err)

	require.NotNil(t, doc.IBSTotal)
	// 1000 * 50% * 8.8% = 44.00
	assert.True(t, doc.IBSTotal.Equal(dec("44.00")), "ibs %s", doc.IBSTotal)
	assert.Nil(t, doc.SelectiveTaxTotal)
	assert.Nil(t, doc.CBSTotal)
}

func TestBuild_MissingRecipientStateIsHardError(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("")
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	_, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       testNature(),
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDestination)
}

func TestBuild_DisclosureNoteAppended(t *testing.T) {
	company := testCompany(partydomain.RegimeNormal)
	cp := testCounterparty("MG")
	nature := testNature()
	nature.DisclosureNote = "Mercadoria com garantia de 90 dias."
	order := testOrder(company.ID, cp.ID, orderdomain.OrderItem{
		Description: "Peca X",
		Quantity:    dec("1"),
		UnitPrice:   dec("100.00"),
		Subtotal:    dec("100.00"),
	})

	doc, err := Build(BuildInput{
		Order:        order,
		Company:      company,
		Counterparty: cp,
		Nature:       nature,
		Rules:        taxdomain.RuleSet{taxdomain.RuleKindICMS: icmsRule("18", "00", "5102")},
		Now:          time.Now(),
	})
	require.NoError(t, err)

	assert.Contains(t, doc.AdditionalInformation, "Mercadoria com garantia de 90 dias.")
	assert.Contains(t, doc.AdditionalInformation, "Total aproximado de tributos: R$ 15,25 (15,25%)")
}
