package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGetDelete(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_ExpiredEntryIsGone(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_NonPositiveTTLStoresNothing(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestRuleResolverCache_RoundTrip(t *testing.T) {
	c := NewRuleResolverCache()
	natureID := snowflake.ID(10)
	set := taxdomain.RuleSet{taxdomain.RuleKindICMS: &taxdomain.TaxRule{CFOP: "5102"}}

	_, ok := c.GetRules(natureID, "BA")
	assert.False(t, ok)

	c.SetRules(natureID, "BA", set)
	got, ok := c.GetRules(natureID, "BA")
	assert.True(t, ok)
	assert.Equal(t, "5102", got.Get(taxdomain.RuleKindICMS).CFOP)

	_, ok = c.GetRules(natureID, "SP")
	assert.False(t, ok)
}

func TestRuleResolverCache_InvalidateNature(t *testing.T) {
	c := NewRuleResolverCache()
	natureID := snowflake.ID(10)
	c.SetRules(natureID, "BA", taxdomain.RuleSet{})
	c.SetRules(snowflake.ID(11), "BA", taxdomain.RuleSet{})

	c.InvalidateNature(natureID)

	_, ok := c.GetRules(natureID, "BA")
	assert.False(t, ok)
	_, ok = c.GetRules(snowflake.ID(11), "BA")
	assert.True(t, ok)
}
