package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *Document {
	return &Document{
		OperationNature:            "Venda de mercadoria",
		EmitterCNPJ:                "12345678000195",
		EmitterName:                "Comercio de Pecas Ltda",
		EmitterStateRegistration:   "1234567890",
		EmitterState:               "MG",
		RecipientName:              "Joao da Silva",
		RecipientCPF:               "12345678909",
		RecipientIEIndicator:       IEIndicatorNonContributor,
		RecipientStateRegistration: "",
		Items: []Item{{
			Number:      "1",
			Description: "Peca X",
			CFOP:        "5102",
			NCM:         "84219999",
		}},
	}
}

func TestValidate_ValidDocument(t *testing.T) {
	errs := Validate(validDocument())
	assert.False(t, errs.HasErrors(), "unexpected: %v", errs)
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	doc := validDocument()
	doc.EmitterName = strings.Repeat("a", 61)
	doc.RecipientName = ""
	doc.Items[0].Description = strings.Repeat("b", 121)
	doc.Items[0].CFOP = ""

	errs := Validate(doc)
	require.True(t, errs.HasErrors())
	assert.GreaterOrEqual(t, len(errs), 4)

	fields := make([]string, len(errs))
	for i, fe := range errs {
		fields[i] = fe.Field
	}
	assert.Contains(t, fields, "nome_emitente")
	assert.Contains(t, fields, "nome_destinatario")
	assert.Contains(t, fields, "items[1].descricao")
	assert.Contains(t, fields, "items[1].cfop")
}

func TestValidate_ContributorNeedsRealRegistration(t *testing.T) {
	doc := validDocument()
	doc.RecipientCPF = ""
	doc.RecipientCNPJ = "11222333000181"
	doc.RecipientIEIndicator = IEIndicatorContributor
	doc.RecipientStateRegistration = "ISENTO"

	errs := Validate(doc)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.Error(), "inscricao_estadual_destinatario")
}

func TestValidate_MissingDocumentNumber(t *testing.T) {
	doc := validDocument()
	doc.RecipientCPF = ""

	errs := Validate(doc)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.Error(), "cpf_destinatario")
}
