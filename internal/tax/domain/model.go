package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RuleKind discriminates the tax a rule configures.
type RuleKind string

const (
	RuleKindICMS        RuleKind = "icms"
	RuleKindPIS         RuleKind = "pis"
	RuleKindCOFINS      RuleKind = "cofins"
	RuleKindIPI         RuleKind = "ipi"
	RuleKindWithholding RuleKind = "withholding"
	RuleKindIS          RuleKind = "is"
	RuleKindIBS         RuleKind = "ibs"
	RuleKindCBS         RuleKind = "cbs"
)

// Kinds lists every rule kind in resolution order.
var Kinds = []RuleKind{
	RuleKindICMS,
	RuleKindPIS,
	RuleKindCOFINS,
	RuleKindIPI,
	RuleKindWithholding,
	RuleKindIS,
	RuleKindIBS,
	RuleKindCBS,
}

// ValidKind reports whether kind names a known rule kind.
func ValidKind(kind RuleKind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DestinationAny is the sentinel destination filter matching every state.
const DestinationAny = "any"

// TaxRule configures one tax kind for an operation nature.
//
// Destinations is a comma or space separated list of two-letter state codes,
// or the sentinel "any". SituationCode carries the CST (or CSOSN) for ICMS,
// PIS, COFINS and IPI, and the classification code for IS/IBS/CBS.
type TaxRule struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	OperationNatureID snowflake.ID `gorm:"column:operation_nature_id;not null;index:idx_tax_rules_nature_kind"`
	Kind              RuleKind     `gorm:"type:text;not null;index:idx_tax_rules_nature_kind"`

	Destinations  string `gorm:"type:text;not null;default:'any'"`
	SituationCode string `gorm:"column:situation_code;type:text"`

	Rate        decimal.NullDecimal `gorm:"type:numeric(7,4)"`
	BasePercent decimal.NullDecimal `gorm:"column:base_percent;type:numeric(7,4)"`

	// ICMS extras.
	CFOP            string              `gorm:"column:cfop;type:text"`
	PresumptiveRate decimal.NullDecimal `gorm:"column:presumptive_rate;type:numeric(7,4)"`

	// IPI extra.
	LegalFrameworkCode string `gorm:"column:legal_framework_code;type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxRule) TableName() string { return "tax_rules" }

// MatchesDestination reports whether the rule's destination filter covers the
// given state. The sentinel "any" matches everything.
func (r *TaxRule) MatchesDestination(state string) bool {
	return r.IsCatchAll() || r.MatchesExplicit(state)
}

// IsCatchAll reports whether the rule uses the "any" sentinel.
func (r *TaxRule) IsCatchAll() bool {
	return strings.EqualFold(strings.TrimSpace(r.Destinations), DestinationAny)
}

// MatchesExplicit reports whether the filter names the state explicitly.
func (r *TaxRule) MatchesExplicit(state string) bool {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return false
	}
	for _, token := range splitDestinations(r.Destinations) {
		if strings.ToUpper(token) == state {
			return true
		}
	}
	return false
}

func splitDestinations(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';' || r == '\t'
	})
}

// RuleSet holds at most one resolved rule per kind.
type RuleSet map[RuleKind]*TaxRule

// Get returns the resolved rule for kind, nil when not applicable.
func (s RuleSet) Get(kind RuleKind) *TaxRule {
	if s == nil {
		return nil
	}
	return s[kind]
}
