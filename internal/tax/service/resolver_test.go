package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"github.com/smallbiznis/fiscal/internal/tax/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupResolver(t *testing.T) (taxdomain.Resolver, taxdomain.Repository, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&taxdomain.TaxRule{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.NewRepository(db)
	return NewResolver(repo), repo, node
}

func newRule(node *snowflake.Node, natureID snowflake.ID, kind taxdomain.RuleKind, destinations, cst string, rate float64) *taxdomain.TaxRule {
	return &taxdomain.TaxRule{
		ID:                node.Generate(),
		OperationNatureID: natureID,
		Kind:              kind,
		Destinations:      destinations,
		SituationCode:     cst,
		Rate:              decimal.NewNullDecimal(decimal.NewFromFloat(rate)),
	}
}

func TestResolve_ExplicitStateWinsOverAny(t *testing.T) {
	resolver, repo, node := setupResolver(t)
	ctx := context.Background()
	natureID := node.Generate()

	catchAll := newRule(node, natureID, taxdomain.RuleKindICMS, "any", "00", 18)
	explicit := newRule(node, natureID, taxdomain.RuleKindICMS, "SP, RJ", "00", 12)
	require.NoError(t, repo.Create(ctx, catchAll))
	require.NoError(t, repo.Create(ctx, explicit))

	rule, err := resolver.Resolve(ctx, taxdomain.RuleKindICMS, natureID, "rj")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, explicit.ID, rule.ID)
}

func TestResolve_FallsBackToAny(t *testing.T) {
	resolver, repo, node := setupResolver(t)
	ctx := context.Background()
	natureID := node.Generate()

	catchAll := newRule(node, natureID, taxdomain.RuleKindICMS, "any", "00", 18)
	explicit := newRule(node, natureID, taxdomain.RuleKindICMS, "SP RJ", "00", 12)
	require.NoError(t, repo.Create(ctx, catchAll))
	require.NoError(t, repo.Create(ctx, explicit))

	rule, err := resolver.Resolve(ctx, taxdomain.RuleKindICMS, natureID, "BA")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, catchAll.ID, rule.ID)
}

func TestResolve_NoMatchReturnsNil(t *testing.T) {
	resolver, repo, node := setupResolver(t)
	ctx := context.Background()
	natureID := node.Generate()

	explicit := newRule(node, natureID, taxdomain.RuleKindPIS, "SP", "01", 1.65)
	require.NoError(t, repo.Create(ctx, explicit))

	rule, err := resolver.Resolve(ctx, taxdomain.RuleKindPIS, natureID, "MG")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestResolveAll_OneRulePerKind(t *testing.T) {
	resolver, repo, node := setupResolver(t)
	ctx := context.Background()
	natureID := node.Generate()

	require.NoError(t, repo.Create(ctx, newRule(node, natureID, taxdomain.RuleKindICMS, "any", "00", 18)))
	require.NoError(t, repo.Create(ctx, newRule(node, natureID, taxdomain.RuleKindPIS, "any", "01", 1.65)))
	require.NoError(t, repo.Create(ctx, newRule(node, natureID, taxdomain.RuleKindCOFINS, "any", "01", 7.6)))
	icmsRJ := newRule(node, natureID, taxdomain.RuleKindICMS, "RJ", "00", 20)
	require.NoError(t, repo.Create(ctx, icmsRJ))

	set, err := resolver.ResolveAll(ctx, natureID, "RJ")
	require.NoError(t, err)

	require.NotNil(t, set.Get(taxdomain.RuleKindICMS))
	assert.Equal(t, icmsRJ.ID, set.Get(taxdomain.RuleKindICMS).ID)
	assert.NotNil(t, set.Get(taxdomain.RuleKindPIS))
	assert.NotNil(t, set.Get(taxdomain.RuleKindCOFINS))
	assert.Nil(t, set.Get(taxdomain.RuleKindIPI))
}
