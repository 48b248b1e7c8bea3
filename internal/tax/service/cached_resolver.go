package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fiscal/internal/cache"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
)

type cachedResolver struct {
	inner taxdomain.Resolver
	rules cache.RuleResolverCache
}

// NewCachedResolver wraps a resolver with a short-lived rule-set cache.
// Emission bursts for the same nature then hit the database once.
func NewCachedResolver(inner taxdomain.Resolver, rules cache.RuleResolverCache) taxdomain.Resolver {
	if rules == nil {
		return inner
	}
	return &cachedResolver{inner: inner, rules: rules}
}

func (r *cachedResolver) Resolve(ctx context.Context, kind taxdomain.RuleKind, natureID snowflake.ID, destinationState string) (*taxdomain.TaxRule, error) {
	if set, ok := r.rules.GetRules(natureID, destinationState); ok {
		return set.Get(kind), nil
	}
	return r.inner.Resolve(ctx, kind, natureID, destinationState)
}

func (r *cachedResolver) ResolveAll(ctx context.Context, natureID snowflake.ID, destinationState string) (taxdomain.RuleSet, error) {
	if set, ok := r.rules.GetRules(natureID, destinationState); ok {
		return set, nil
	}
	set, err := r.inner.ResolveAll(ctx, natureID, destinationState)
	if err != nil {
		return nil, err
	}
	r.rules.SetRules(natureID, destinationState, set)
	return set, nil
}
