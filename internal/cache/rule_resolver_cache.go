package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
)

const defaultRuleSetTTL = 30 * time.Second

// RuleResolverCache stores resolved rule sets per nature and destination
// state. Rule edits invalidate the whole nature.
type RuleResolverCache interface {
	GetRules(natureID snowflake.ID, destinationState string) (taxdomain.RuleSet, bool)
	SetRules(natureID snowflake.ID, destinationState string, set taxdomain.RuleSet)
	InvalidateNature(natureID snowflake.ID)
}

type ruleResolverCache struct {
	sets Cache[string, taxdomain.RuleSet]
	ttl  time.Duration

	// gens bumps per nature on invalidation; stale generations age out
	// with their TTL instead of being swept.
	mu   sync.Mutex
	gens map[snowflake.ID]uint64
}

// NewRuleResolverCache returns an in-memory cache for resolved rule sets.
func NewRuleResolverCache() RuleResolverCache {
	return &ruleResolverCache{
		sets: NewTTLCache[string, taxdomain.RuleSet](),
		ttl:  defaultRuleSetTTL,
		gens: make(map[snowflake.ID]uint64),
	}
}

func (c *ruleResolverCache) GetRules(natureID snowflake.ID, destinationState string) (taxdomain.RuleSet, bool) {
	return c.sets.Get(c.key(natureID, destinationState))
}

func (c *ruleResolverCache) SetRules(natureID snowflake.ID, destinationState string, set taxdomain.RuleSet) {
	if set == nil {
		return
	}
	c.sets.Set(c.key(natureID, destinationState), set, c.ttl)
}

func (c *ruleResolverCache) InvalidateNature(natureID snowflake.ID) {
	c.mu.Lock()
	c.gens[natureID]++
	c.mu.Unlock()
}

func (c *ruleResolverCache) key(natureID snowflake.ID, destinationState string) string {
	c.mu.Lock()
	gen := c.gens[natureID]
	c.mu.Unlock()
	return fmt.Sprintf("%d|%d|%s", natureID, gen, destinationState)
}
