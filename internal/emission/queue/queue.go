// Package queue carries emission tasks between the API and the worker pool.
package queue

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Task is one unit of emission work. Attempt counts from 1.
type Task struct {
	InvoiceID snowflake.ID `json:"invoice_id"`
	Attempt   int          `json:"attempt"`
	// NotBefore delays delivery. Zero means deliver immediately.
	NotBefore time.Time `json:"not_before,omitempty"`
}

// Queue delivers emission tasks at least once. Delivery order among ready
// tasks is FIFO; delayed tasks become ready once NotBefore passes.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Dequeue blocks until a task is ready or ctx is done.
	Dequeue(ctx context.Context) (*Task, error)
}
