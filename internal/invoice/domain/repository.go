package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ListFilter narrows invoice listings. AfterID pages backwards through the
// id-descending ordering.
type ListFilter struct {
	CompanyID snowflake.ID
	OrderID   snowflake.ID
	Status    Status
	Limit     int
	AfterID   snowflake.ID
}

// Repository persists invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	FindByRef(ctx context.Context, ref string) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	// ListProcessingBefore returns invoices stuck in PROCESSING whose last
	// update is older than the cutoff, for the reconciliation sweep.
	ListProcessingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Invoice, error)
}

// EventRepository appends to and reads invoice timelines.
type EventRepository interface {
	Append(ctx context.Context, ev *Event) error
	ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Event, error)
	// LastByType returns the most recent event of the given type, or nil.
	LastByType(ctx context.Context, invoiceID snowflake.ID, eventType string) (*Event, error)
}

// SequenceRepository hands out document numbers per company and series.
type SequenceRepository interface {
	Next(ctx context.Context, companyID snowflake.ID, series string) (int64, error)
}
