package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tax regime codes carried by the authority (CRT).
const (
	RegimeSimplified       = "1"
	RegimeSimplifiedExcess = "2"
	RegimeNormal           = "3"
)

// StateRegistrationExempt is the literal the authority accepts for exempt parties.
const StateRegistrationExempt = "ISENTO"

// Company is the emitting party.
type Company struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Name      string `gorm:"type:text;not null"`
	TradeName string `gorm:"column:trade_name;type:text"`
	CNPJ      string `gorm:"column:cnpj;type:text;not null;uniqueIndex"`

	StateRegistration string `gorm:"column:state_registration;type:text"`
	// RegimeCode is the CRT: 1 simplified, 2 simplified over the revenue cap,
	// 3 normal regime.
	RegimeCode    string `gorm:"column:regime_code;type:text;not null"`
	SpecialRegime bool   `gorm:"column:special_regime;not null;default:false"`

	Street     string `gorm:"type:text"`
	Number     string `gorm:"type:text"`
	District   string `gorm:"type:text"`
	City       string `gorm:"type:text"`
	State      string `gorm:"type:text"`
	PostalCode string `gorm:"column:postal_code;type:text"`
	Phone      string `gorm:"type:text"`

	// Per-environment gateway credentials. Empty falls back to the global token.
	TokenHomologation string `gorm:"column:token_homologation;type:text"`
	TokenProduction   string `gorm:"column:token_production;type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Company) TableName() string { return "companies" }

// Counterparty is the receiving party of a fiscal document.
type Counterparty struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Name string `gorm:"type:text;not null"`
	// Document holds CPF (11 digits) or CNPJ (14 digits), punctuation allowed.
	Document string `gorm:"type:text;not null"`

	StateRegistration string `gorm:"column:state_registration;type:text"`
	ICMSContributor   bool   `gorm:"column:icms_contributor;not null;default:false"`
	// IEIndicator, when set, overrides the derived state-registration
	// indicator: 1 contributor, 2 exempt, 9 non-contributor.
	IEIndicator *int `gorm:"column:ie_indicator"`
	// EndConsumer, when set, overrides the derived end-consumer flag.
	EndConsumer *bool `gorm:"column:end_consumer"`

	Street     string `gorm:"type:text"`
	Number     string `gorm:"type:text"`
	Complement string `gorm:"type:text"`
	District   string `gorm:"type:text"`
	City       string `gorm:"type:text"`
	State      string `gorm:"type:text"`
	Country    string `gorm:"type:text;not null;default:'Brasil'"`
	PostalCode string `gorm:"column:postal_code;type:text"`
	Phone      string `gorm:"type:text"`
	Mobile     string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Counterparty) TableName() string { return "counterparties" }

// GatewayToken returns the credential for the given gateway environment.
func (c *Company) GatewayToken(environment string) string {
	if strings.EqualFold(environment, "production") {
		return strings.TrimSpace(c.TokenProduction)
	}
	return strings.TrimSpace(c.TokenHomologation)
}

// ContactPhone prefers the mobile number over the land line.
func (c *Counterparty) ContactPhone() string {
	if phone := strings.TrimSpace(c.Mobile); phone != "" {
		return phone
	}
	return strings.TrimSpace(c.Phone)
}
