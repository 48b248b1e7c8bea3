package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OperationNature describes why a transaction occurs (sale, return, transfer)
// and carries the emission defaults attached to that intent. Operators manage
// natures; the emission pipeline only reads them.
type OperationNature struct {
	ID snowflake.ID `gorm:"primaryKey"`
	// CompanyID scopes the nature to one emitter; nil means global.
	CompanyID *snowflake.ID `gorm:"column:company_id;index"`

	Description string `gorm:"type:text;not null"`
	// DisclosureNote is free text prepended to the document's additional
	// information block.
	DisclosureNote string `gorm:"column:disclosure_note;type:text"`

	// PresenceIndicator is the buyer-presence code (1-9); empty defaults to
	// 2 (internet).
	PresenceIndicator string `gorm:"column:presence_indicator;type:text"`

	// EndConsumer, when set, overrides the derived end-consumer flag.
	EndConsumer *bool `gorm:"column:end_consumer"`

	// FreightInBase controls whether the freight share joins the ICMS,
	// PIS and COFINS calculation base (indTot).
	FreightInBase bool `gorm:"column:freight_in_base;not null;default:true"`

	IntermediaryIndicator string `gorm:"column:intermediary_indicator;type:text"`
	IntermediaryCNPJ      string `gorm:"column:intermediary_cnpj;type:text"`
	IntermediaryID        string `gorm:"column:intermediary_id;type:text"`

	IsReturn bool   `gorm:"column:is_return;not null;default:false"`
	Series   string `gorm:"type:text;not null;default:'1'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OperationNature) TableName() string { return "operation_natures" }
