package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	"github.com/smallbiznis/fiscal/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewRepository(db *gorm.DB, node *snowflake.Node) invoicedomain.Repository {
	return &repository{db: db, node: node}
}

func (r *repository) Create(ctx context.Context, inv *invoicedomain.Invoice) error {
	if inv.ID == 0 {
		inv.ID = r.node.Generate()
	}
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) Update(ctx context.Context, inv *invoicedomain.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) FindByRef(ctx context.Context, ref string) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := r.db.WithContext(ctx).First(&inv, "correlation_ref = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&invoicedomain.Invoice{})
	if filter.CompanyID != 0 {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.OrderID != 0 {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AfterID != 0 {
		q = q.Where("id < ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var invoices []invoicedomain.Invoice
	if err := q.Order("id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ListProcessingBefore(ctx context.Context, cutoff time.Time, limit int) ([]invoicedomain.Invoice, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", invoicedomain.StatusProcessing, cutoff).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var invoices []invoicedomain.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

type eventRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewEventRepository(db *gorm.DB, node *snowflake.Node) invoicedomain.EventRepository {
	return &eventRepository{db: db, node: node}
}

func (r *eventRepository) Append(ctx context.Context, ev *invoicedomain.Event) error {
	if ev.ID == 0 {
		ev.ID = r.node.Generate()
	}
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *eventRepository) ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]invoicedomain.Event, error) {
	var events []invoicedomain.Event
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) LastByType(ctx context.Context, invoiceID snowflake.ID, eventType string) (*invoicedomain.Event, error) {
	var ev invoicedomain.Event
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND type = ?", invoiceID, eventType).
		Order("id DESC").
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

type sequenceRepository struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewSequenceRepository(db *gorm.DB, node *snowflake.Node) invoicedomain.SequenceRepository {
	return &sequenceRepository{db: db, node: node}
}

// Next increments the per-company, per-series counter and returns the
// allocated number. The increment runs as a single UPDATE so concurrent
// emissions never share a number. Two emitters racing to create the counter
// row collide on the unique index; the loser retakes the update path.
func (r *sequenceRepository) Next(ctx context.Context, companyID snowflake.ID, series string) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		allocated, err := r.allocate(ctx, companyID, series)
		if err == nil {
			return allocated, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (r *sequenceRepository) allocate(ctx context.Context, companyID snowflake.ID, series string) (int64, error) {
	var allocated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&invoicedomain.Sequence{}).
			Where("company_id = ? AND series = ?", companyID, series).
			Updates(map[string]any{
				"next_number": gorm.Expr("next_number + 1"),
				"updated_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			seq := invoicedomain.Sequence{
				ID:         r.node.Generate(),
				CompanyID:  companyID,
				Series:     series,
				NextNumber: 2,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			allocated = 1
			return nil
		}

		var seq invoicedomain.Sequence
		if err := tx.Where("company_id = ? AND series = ?", companyID, series).First(&seq).Error; err != nil {
			return err
		}
		allocated = seq.NextNumber - 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return allocated, nil
}
