// Package reconcile polls the gateway for invoices stuck in PROCESSING.
// Webhooks are the primary status channel; the sweep catches deliveries
// that never arrived.
package reconcile

import (
	"context"
	"time"

	"github.com/smallbiznis/fiscal/internal/clock"
	"github.com/smallbiznis/fiscal/internal/config"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/fiscal/internal/invoice/service"
	"github.com/smallbiznis/fiscal/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepBatchSize = 100

// Sweeper reconciles in-flight emissions against the gateway.
type Sweeper struct {
	invoices invoicedomain.Repository
	service  invoiceservice.Service
	clock    clock.Clock
	cfg      config.SyncConfig
	log      *zap.Logger
	metrics  *metrics.EmissionMetrics
}

// NewSweeper builds the reconciliation sweeper.
func NewSweeper(cfg config.Config, invoices invoicedomain.Repository, svc invoiceservice.Service, clk clock.Clock, logger *zap.Logger, em *metrics.EmissionMetrics) *Sweeper {
	return &Sweeper{
		invoices: invoices,
		service:  svc,
		clock:    clk,
		cfg:      cfg.Sync,
		log:      logger.Named("reconcile"),
		metrics:  em,
	}
}

// RunOnce queries the gateway for every invoice that has sat in PROCESSING
// longer than the configured minimum age. A failure on one invoice never
// stops the sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.cfg.MinAge)
	stuck, err := s.invoices.ListProcessingBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, inv := range stuck {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		before := inv.Status
		refreshed, err := s.service.SyncNow(ctx, inv.ID)
		if err != nil {
			s.log.Warn("sweep query failed",
				zap.Int64("invoice_id", int64(inv.ID)),
				zap.Error(err))
			continue
		}
		if refreshed.Status != before {
			updated++
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveSweep(updated)
	}
	if len(stuck) > 0 {
		s.log.Info("reconciliation sweep finished",
			zap.Int("checked", len(stuck)),
			zap.Int("updated", updated))
	}
	return updated, nil
}

// RunForever sweeps on the configured interval until ctx is done.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("reconciliation sweep failed", zap.Error(err))
		}
	}
}

var Module = fx.Module("reconcile",
	fx.Provide(NewSweeper),
	fx.Invoke(Start),
)

// Start hooks the sweeper into the fx lifecycle unless sync is disabled.
func Start(lc fx.Lifecycle, cfg config.Config, sweeper *Sweeper) {
	if cfg.Sync.Disabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sweeper.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
