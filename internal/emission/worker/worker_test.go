package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fiscal/internal/config"
	"github.com/smallbiznis/fiscal/internal/emission/queue"
	"github.com/smallbiznis/fiscal/internal/gateway"
	invoiceservice "github.com/smallbiznis/fiscal/internal/invoice/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	invoiceservice.Service

	submitErr error
	calls     []int
}

func (s *fakeService) Submit(_ context.Context, _ snowflake.ID, attempt int) error {
	s.calls = append(s.calls, attempt)
	return s.submitErr
}

type recordingQueue struct {
	tasks []queue.Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task queue.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) Dequeue(ctx context.Context) (*queue.Task, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestPool(svc *fakeService, q queue.Queue) *Pool {
	cfg := config.Config{Worker: config.WorkerConfig{
		Concurrency:  1,
		MaxAttempts:  3,
		RetryBackoff: 5 * time.Second,
	}}
	return NewPool(cfg, q, svc, nil, zap.NewNop())
}

func TestProcess_SuccessDoesNotRetry(t *testing.T) {
	svc := &fakeService{}
	q := &recordingQueue{}
	pool := newTestPool(svc, q)

	pool.Process(context.Background(), queue.Task{InvoiceID: snowflake.ID(1), Attempt: 1})

	assert.Equal(t, []int{1}, svc.calls)
	assert.Empty(t, q.tasks)
}

func TestProcess_TemporaryFailureSchedulesRetryWithBackoff(t *testing.T) {
	svc := &fakeService{submitErr: gateway.NewTemporaryError(503, "gateway down")}
	q := &recordingQueue{}
	pool := newTestPool(svc, q)

	before := time.Now()
	pool.Process(context.Background(), queue.Task{InvoiceID: snowflake.ID(1), Attempt: 1})

	require.Len(t, q.tasks, 1)
	retry := q.tasks[0]
	assert.Equal(t, snowflake.ID(1), retry.InvoiceID)
	assert.Equal(t, 2, retry.Attempt)
	assert.WithinDuration(t, before.Add(5*time.Second), retry.NotBefore, time.Second)
}

func TestProcess_BackoffDoublesPerAttempt(t *testing.T) {
	svc := &fakeService{submitErr: gateway.NewTemporaryError(503, "gateway down")}
	q := &recordingQueue{}
	pool := newTestPool(svc, q)

	before := time.Now()
	pool.Process(context.Background(), queue.Task{InvoiceID: snowflake.ID(1), Attempt: 2})

	require.Len(t, q.tasks, 1)
	assert.Equal(t, 3, q.tasks[0].Attempt)
	assert.WithinDuration(t, before.Add(10*time.Second), q.tasks[0].NotBefore, time.Second)
}

func TestProcess_PermanentFailureIsNotRetried(t *testing.T) {
	svc := &fakeService{submitErr: gateway.NewPermanentError(422, "campo invalido")}
	q := &recordingQueue{}
	pool := newTestPool(svc, q)

	pool.Process(context.Background(), queue.Task{InvoiceID: snowflake.ID(1), Attempt: 1})

	assert.Empty(t, q.tasks)
}

func TestProcess_MaxAttemptsStopsRetrying(t *testing.T) {
	svc := &fakeService{submitErr: gateway.NewTemporaryError(503, "gateway down")}
	q := &recordingQueue{}
	pool := newTestPool(svc, q)

	pool.Process(context.Background(), queue.Task{InvoiceID: snowflake.ID(1), Attempt: 3})

	assert.Empty(t, q.tasks)
}

func TestProcess_ZeroAttemptCountsAsFirst(t *testing.T) {
	svc := &fakeService{submitErr: gateway.NewTemporaryError(503, "gateway down")}
	q := &recordingQueue{}
	pool := newTestPool(svc, q)

	pool.Process(context.Background(), queue.Task{InvoiceID: snowflake.ID(1)})

	assert.Equal(t, []int{1}, svc.calls)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, 2, q.tasks[0].Attempt)
}

func TestRunForever_StopsOnCancel(t *testing.T) {
	svc := &fakeService{}
	pool := newTestPool(svc, &recordingQueue{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.RunForever(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}
