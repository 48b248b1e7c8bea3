package document

import (
	"fmt"
	"strings"

	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
)

// Text caps per the authority XML schema (NF-e 4.0).
const (
	maxTextLen        = 60
	maxDescriptionLen = 120
)

// Validate checks the payload against the authority schema constraints and
// returns every violation at once. An empty result means the document can be
// submitted.
func Validate(doc *Document) ValidationErrors {
	var errs ValidationErrors

	requireField := func(value, field string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: field, Message: "required field is empty"})
		}
	}
	checkMax := func(value, field string, max int) {
		if n := len([]rune(strings.TrimSpace(value))); n > max {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("has %d characters, maximum is %d", n, max),
			})
		}
	}

	requireField(doc.EmitterCNPJ, "cnpj_emitente")
	requireField(doc.EmitterName, "nome_emitente")
	requireField(doc.EmitterStateRegistration, "inscricao_estadual_emitente")
	requireField(doc.EmitterState, "uf_emitente")
	requireField(doc.RecipientName, "nome_destinatario")
	requireField(doc.OperationNature, "natureza_operacao")

	if doc.RecipientCPF == "" && doc.RecipientCNPJ == "" {
		errs = append(errs, FieldError{
			Field:   "cpf_destinatario",
			Message: "counterparty needs a CPF or CNPJ",
		})
	}

	checkMax(doc.EmitterName, "nome_emitente", maxTextLen)
	checkMax(doc.EmitterTradeName, "nome_fantasia_emitente", maxTextLen)
	checkMax(doc.EmitterStreet, "logradouro_emitente", maxTextLen)
	checkMax(doc.EmitterNumber, "numero_emitente", maxTextLen)
	checkMax(doc.EmitterDistrict, "bairro_emitente", maxTextLen)
	checkMax(doc.EmitterCity, "municipio_emitente", maxTextLen)

	checkMax(doc.RecipientName, "nome_destinatario", maxTextLen)
	checkMax(doc.RecipientStreet, "logradouro_destinatario", maxTextLen)
	checkMax(doc.RecipientNumber, "numero_destinatario", maxTextLen)
	checkMax(doc.RecipientComplement, "complemento_destinatario", maxTextLen)
	checkMax(doc.RecipientDistrict, "bairro_destinatario", maxTextLen)
	checkMax(doc.RecipientCity, "municipio_destinatario", maxTextLen)

	// An ICMS contributor must carry a real state registration; the
	// authority rejects contributors declared exempt.
	if doc.RecipientIEIndicator == IEIndicatorContributor {
		ie := strings.ToUpper(strings.TrimSpace(doc.RecipientStateRegistration))
		if ie == "" || ie == partydomain.StateRegistrationExempt {
			errs = append(errs, FieldError{
				Field:   "inscricao_estadual_destinatario",
				Message: "ICMS contributor requires a non-exempt state registration",
			})
		}
	}

	for i := range doc.Items {
		item := &doc.Items[i]
		field := fmt.Sprintf("items[%d].descricao", i+1)
		requireField(item.Description, field)
		checkMax(item.Description, field, maxDescriptionLen)
		requireField(item.CFOP, fmt.Sprintf("items[%d].cfop", i+1))
		requireField(item.NCM, fmt.Sprintf("items[%d].codigo_ncm", i+1))
	}

	return errs
}
