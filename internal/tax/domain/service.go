package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Resolver selects the single applicable rule per tax kind for a destination.
type Resolver interface {
	Resolve(ctx context.Context, kind RuleKind, natureID snowflake.ID, destinationState string) (*TaxRule, error)
	ResolveAll(ctx context.Context, natureID snowflake.ID, destinationState string) (RuleSet, error)
}
