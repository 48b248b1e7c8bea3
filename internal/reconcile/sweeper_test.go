package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fiscal/internal/clock"
	"github.com/smallbiznis/fiscal/internal/config"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/fiscal/internal/invoice/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoiceRepo struct {
	invoicedomain.Repository

	stuck   []invoicedomain.Invoice
	listErr error
	cutoff  time.Time
}

func (r *fakeInvoiceRepo) ListProcessingBefore(_ context.Context, cutoff time.Time, _ int) ([]invoicedomain.Invoice, error) {
	r.cutoff = cutoff
	return r.stuck, r.listErr
}

type fakeSyncService struct {
	invoiceservice.Service

	results map[snowflake.ID]invoicedomain.Status
	errs    map[snowflake.ID]error
	synced  []snowflake.ID
}

func (s *fakeSyncService) SyncNow(_ context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	s.synced = append(s.synced, id)
	if err := s.errs[id]; err != nil {
		return nil, err
	}
	return &invoicedomain.Invoice{ID: id, Status: s.results[id]}, nil
}

func newTestSweeper(repo *fakeInvoiceRepo, svc *fakeSyncService, clk clock.Clock) *Sweeper {
	cfg := config.Config{Sync: config.SyncConfig{
		Interval: time.Minute,
		MinAge:   2 * time.Minute,
	}}
	return NewSweeper(cfg, repo, svc, clk, zap.NewNop(), nil)
}

func TestRunOnce_UpdatesStuckInvoices(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeInvoiceRepo{stuck: []invoicedomain.Invoice{
		{ID: snowflake.ID(1), Status: invoicedomain.StatusProcessing},
		{ID: snowflake.ID(2), Status: invoicedomain.StatusProcessing},
	}}
	svc := &fakeSyncService{results: map[snowflake.ID]invoicedomain.Status{
		snowflake.ID(1): invoicedomain.StatusAuthorized,
		snowflake.ID(2): invoicedomain.StatusProcessing,
	}}
	s := newTestSweeper(repo, svc, clock.NewFakeClock(now))

	updated, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, updated)
	assert.Equal(t, []snowflake.ID{1, 2}, svc.synced)
	assert.Equal(t, now.Add(-2*time.Minute), repo.cutoff)
}

func TestRunOnce_OneFailureDoesNotStopTheSweep(t *testing.T) {
	repo := &fakeInvoiceRepo{stuck: []invoicedomain.Invoice{
		{ID: snowflake.ID(1), Status: invoicedomain.StatusProcessing},
		{ID: snowflake.ID(2), Status: invoicedomain.StatusProcessing},
	}}
	svc := &fakeSyncService{
		results: map[snowflake.ID]invoicedomain.Status{
			snowflake.ID(2): invoicedomain.StatusRejected,
		},
		errs: map[snowflake.ID]error{
			snowflake.ID(1): errors.New("gateway unreachable"),
		},
	}
	s := newTestSweeper(repo, svc, clock.NewFakeClock(time.Now()))

	updated, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, updated)
	assert.Equal(t, []snowflake.ID{1, 2}, svc.synced)
}

func TestRunOnce_ListFailurePropagates(t *testing.T) {
	repo := &fakeInvoiceRepo{listErr: errors.New("db down")}
	svc := &fakeSyncService{}
	s := newTestSweeper(repo, svc, clock.NewFakeClock(time.Now()))

	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, svc.synced)
}

func TestRunOnce_NothingStuck(t *testing.T) {
	repo := &fakeInvoiceRepo{}
	svc := &fakeSyncService{}
	s := newTestSweeper(repo, svc, clock.NewFakeClock(time.Now()))

	updated, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, updated)
}
