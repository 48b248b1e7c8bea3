// Package worker drains the emission queue and drives submission attempts.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/fiscal/internal/config"
	"github.com/smallbiznis/fiscal/internal/emission/queue"
	"github.com/smallbiznis/fiscal/internal/gateway"
	invoiceservice "github.com/smallbiznis/fiscal/internal/invoice/service"
	"github.com/smallbiznis/fiscal/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Pool runs a fixed number of workers against the emission queue.
type Pool struct {
	queue   queue.Queue
	service invoiceservice.Service
	limiter *ratelimit.Limiter
	cfg     config.WorkerConfig
	log     *zap.Logger
}

// NewPool builds the worker pool. The limiter may be nil.
func NewPool(cfg config.Config, q queue.Queue, svc invoiceservice.Service, limiter *ratelimit.Limiter, logger *zap.Logger) *Pool {
	return &Pool{
		queue:   q,
		service: svc,
		limiter: limiter,
		cfg:     cfg.Worker,
		log:     logger.Named("emission.worker"),
	}
}

// RunForever blocks until ctx is done, processing tasks with the configured
// concurrency.
func (p *Pool) RunForever(ctx context.Context) {
	concurrency := p.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.loop(ctx)
		}()
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context) {
	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.log.Warn("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		p.Process(ctx, *task)
	}
}

// Process runs one attempt and schedules a retry when the failure is
// temporary. Backoff doubles per attempt from the configured base.
func (p *Pool) Process(ctx context.Context, task queue.Task) {
	attempt := task.Attempt
	if attempt < 1 {
		attempt = 1
	}

	// A second worker holding the same task submits nothing; the lock holder
	// drives the attempt and the status guard catches any leftovers.
	token, locked, err := p.limiter.TryLockInvoice(ctx, task.InvoiceID)
	if err != nil {
		p.log.Warn("invoice lock unavailable", zap.Error(err))
	} else if !locked {
		p.log.Info("submission already in flight",
			zap.Int64("invoice_id", int64(task.InvoiceID)))
		return
	} else {
		defer func() {
			if rerr := p.limiter.ReleaseInvoice(ctx, task.InvoiceID, token); rerr != nil {
				p.log.Warn("releasing invoice lock failed", zap.Error(rerr))
			}
		}()
	}

	err = p.service.Submit(ctx, task.InvoiceID, attempt)
	if err == nil {
		return
	}
	if !gateway.IsTemporary(err) || attempt >= p.cfg.MaxAttempts {
		p.log.Warn("emission attempt abandoned",
			zap.Int64("invoice_id", int64(task.InvoiceID)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return
	}

	delay := p.cfg.RetryBackoff << (attempt - 1)
	retry := queue.Task{
		InvoiceID: task.InvoiceID,
		Attempt:   attempt + 1,
		NotBefore: time.Now().Add(delay),
	}
	if qerr := p.queue.Enqueue(ctx, retry); qerr != nil {
		p.log.Error("scheduling retry failed",
			zap.Int64("invoice_id", int64(task.InvoiceID)),
			zap.Error(qerr))
		return
	}
	p.log.Info("emission retry scheduled",
		zap.Int64("invoice_id", int64(task.InvoiceID)),
		zap.Int("attempt", attempt+1),
		zap.Duration("delay", delay))
}

// Run hooks the pool into the fx lifecycle.
func Run(lc fx.Lifecycle, pool *Pool) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go pool.RunForever(ctx)

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
