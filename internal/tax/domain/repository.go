package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	ListByNature(ctx context.Context, natureID snowflake.ID) ([]TaxRule, error)
	ListByNatureAndKind(ctx context.Context, natureID snowflake.ID, kind RuleKind) ([]TaxRule, error)
	Create(ctx context.Context, rule *TaxRule) error
	Update(ctx context.Context, rule *TaxRule) error
	Delete(ctx context.Context, id snowflake.ID) error
}
