package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrNotFound = errors.New("not_found")

type Repository interface {
	// FindByID loads the order with its items.
	FindByID(ctx context.Context, id snowflake.ID) (*Order, error)
	Create(ctx context.Context, order *Order) error
}
