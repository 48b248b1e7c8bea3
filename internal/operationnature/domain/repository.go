package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrNotFound = errors.New("not_found")

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*OperationNature, error)
	// List returns global natures plus those owned by companyID.
	List(ctx context.Context, companyID snowflake.ID) ([]OperationNature, error)
	Create(ctx context.Context, nature *OperationNature) error
	Update(ctx context.Context, nature *OperationNature) error
}
