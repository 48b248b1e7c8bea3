// Package domain contains persistence models for fiscal document emission.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice is one fiscal document emission. It is created in DRAFT or
// PENDING and advances through the lifecycle as the authority answers.
type Invoice struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	CompanyID         snowflake.ID `gorm:"column:company_id;not null;index"`
	OrderID           snowflake.ID `gorm:"column:order_id;not null;index"`
	OperationNatureID snowflake.ID `gorm:"column:operation_nature_id;not null;index"`

	// CorrelationRef identifies the emission at the gateway. It is
	// immutable once assigned.
	CorrelationRef string `gorm:"column:correlation_ref;type:text;not null;uniqueIndex"`
	Series         string `gorm:"type:text;not null;default:'1'"`
	Number         int64  `gorm:"not null;default:0"`
	Environment    string `gorm:"type:text;not null"`

	Status     Status          `gorm:"type:text;not null;default:'DRAFT';index"`
	TotalValue decimal.Decimal `gorm:"column:total_value;type:numeric(14,2);not null;default:0"`

	// Payload is the document most recently built or supplied for this
	// invoice. The event log keeps every version ever submitted.
	Payload datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	AccessKey        string `gorm:"column:access_key;type:text"`
	AuthorityStatus  string `gorm:"column:authority_status;type:text"`
	AuthorityMessage string `gorm:"column:authority_message;type:text"`
	XMLURL           string `gorm:"column:xml_url;type:text"`
	PDFURL           string `gorm:"column:pdf_url;type:text"`

	Attempts            int    `gorm:"not null;default:0"`
	LastError           string `gorm:"column:last_error;type:text"`
	CancelJustification string `gorm:"column:cancel_justification;type:text"`

	ClonedFromID *snowflake.ID `gorm:"column:cloned_from_id;index"`

	SubmittedAt  *time.Time `gorm:""`
	AuthorizedAt *time.Time `gorm:""`
	CancelledAt  *time.Time `gorm:""`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "fiscal_invoices" }

// Event types recorded on the invoice timeline.
const (
	EventCreated          = "created"
	EventPayloadBuilt     = "payload_built"
	EventPayloadSubmitted = "payload_submitted"
	EventStatusChanged    = "status_changed"
	EventGatewayError     = "gateway_error"
	EventCancelRequested  = "cancel_requested"
	EventCloned           = "cloned"
)

// Event is one append-only entry on an invoice timeline. Events are never
// updated or deleted.
type Event struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	InvoiceID snowflake.ID      `gorm:"column:invoice_id;not null;index"`
	Type      string            `gorm:"type:text;not null;index"`
	Message   string            `gorm:"type:text"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "fiscal_invoice_events" }

// Sequence allocates document numbers per company and series.
type Sequence struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	CompanyID  snowflake.ID `gorm:"column:company_id;not null;uniqueIndex:ux_sequence_company_series"`
	Series     string       `gorm:"type:text;not null;uniqueIndex:ux_sequence_company_series"`
	NextNumber int64        `gorm:"column:next_number;not null;default:1"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Sequence) TableName() string { return "fiscal_invoice_sequences" }
