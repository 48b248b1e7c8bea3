package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
)

type resolver struct {
	repo taxdomain.Repository
}

// NewResolver builds the rule resolver over the rule repository.
func NewResolver(repo taxdomain.Repository) taxdomain.Resolver {
	return &resolver{repo: repo}
}

// Resolve selects the applicable rule of a kind for a destination state.
// A rule naming the state explicitly wins over the "any" sentinel. Nil with
// no error means no rule applies; callers decide whether that is fatal.
func (r *resolver) Resolve(ctx context.Context, kind taxdomain.RuleKind, natureID snowflake.ID, destinationState string) (*taxdomain.TaxRule, error) {
	rules, err := r.repo.ListByNatureAndKind(ctx, natureID, kind)
	if err != nil {
		return nil, err
	}

	var catchAll *taxdomain.TaxRule
	for i := range rules {
		rule := &rules[i]
		if rule.MatchesExplicit(destinationState) {
			return rule, nil
		}
		if catchAll == nil && rule.IsCatchAll() {
			catchAll = rule
		}
	}
	return catchAll, nil
}

// ResolveAll collects one rule per kind into a RuleSet. Kinds without a
// matching rule are absent from the set.
func (r *resolver) ResolveAll(ctx context.Context, natureID snowflake.ID, destinationState string) (taxdomain.RuleSet, error) {
	rules, err := r.repo.ListByNature(ctx, natureID)
	if err != nil {
		return nil, err
	}

	set := make(taxdomain.RuleSet, len(taxdomain.Kinds))
	catchAll := make(map[taxdomain.RuleKind]*taxdomain.TaxRule)
	for i := range rules {
		rule := &rules[i]
		if _, done := set[rule.Kind]; done {
			continue
		}
		if rule.MatchesExplicit(destinationState) {
			set[rule.Kind] = rule
			continue
		}
		if _, seen := catchAll[rule.Kind]; !seen && rule.IsCatchAll() {
			catchAll[rule.Kind] = rule
		}
	}
	for kind, rule := range catchAll {
		if _, done := set[kind]; !done {
			set[kind] = rule
		}
	}
	return set, nil
}
