package document

import (
	"strings"

	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
)

// splitDocument classifies a registration number: 11 digits is a CPF,
// 14 a CNPJ; anything else is neither.
func splitDocument(raw string) (cpf, cnpj string) {
	digits := onlyDigits(raw)
	switch len(digits) {
	case 11:
		return digits, ""
	case 14:
		return "", digits
	default:
		return "", ""
	}
}

// classifyDestination returns 1 same state, 2 interstate, 3 foreign.
func classifyDestination(emitterState, recipientState, recipientCountry string) int {
	if !strings.EqualFold(strings.TrimSpace(recipientCountry), "Brasil") {
		return DestinationForeign
	}
	origin := strings.ToUpper(strings.TrimSpace(emitterState))
	destination := strings.ToUpper(strings.TrimSpace(recipientState))
	if origin != "" && destination != "" && origin != destination {
		return DestinationInterstate
	}
	return DestinationSameState
}

// ieIndicator derives the recipient's state-registration indicator.
// CPF holders are always non-contributors. An explicit override on the
// counterparty wins; otherwise a declared ICMS contributor with a real
// registration is 1, a literal exemption is 2, a CNPJ with a plausible
// registration is 1, and everything else is 9.
func ieIndicator(cp *partydomain.Counterparty, cpf, cnpj string) int {
	if cpf != "" {
		return IEIndicatorNonContributor
	}
	if cp.IEIndicator != nil {
		switch *cp.IEIndicator {
		case IEIndicatorContributor, IEIndicatorExempt, IEIndicatorNonContributor:
			return *cp.IEIndicator
		}
	}

	ie := strings.ToUpper(strings.TrimSpace(cp.StateRegistration))
	if cp.ICMSContributor && ie != "" && ie != partydomain.StateRegistrationExempt {
		return IEIndicatorContributor
	}
	if ie == partydomain.StateRegistrationExempt {
		return IEIndicatorExempt
	}
	if cnpj != "" && ie != "" && isPlausibleIE(ie) {
		return IEIndicatorContributor
	}
	return IEIndicatorNonContributor
}

func isPlausibleIE(ie string) bool {
	if len(ie) < 2 || len(ie) > 14 {
		return false
	}
	for _, r := range ie {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizePresence clamps the buyer-presence indicator to 1-9, defaulting to
// 2 (internet). Legacy free-text values are mapped by keyword.
func normalizePresence(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "2"
	}
	if len(s) == 1 && s >= "1" && s <= "9" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "internet") {
		return "2"
	}
	if strings.Contains(lower, "presencial") {
		return "1"
	}
	return "9"
}

// normalizePostalCode keeps eight digits, zero padded on the left.
func normalizePostalCode(raw string) string {
	digits := onlyDigits(raw)
	for len(digits) < 8 {
		digits = "0" + digits
	}
	return digits[:8]
}

// normalizeNCM keeps eight digits; an empty NCM becomes the generic code.
func normalizeNCM(raw string) string {
	digits := onlyDigits(raw)
	if digits == "" {
		return "00000000"
	}
	for len(digits) < 8 {
		digits = "0" + digits
	}
	return digits[:8]
}
