package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fiscal/internal/config"
)

const (
	keyEmissionSource = "fiscal:ratelimit:source:%s"
	keyInvoiceLock    = "fiscal:emission:lock:%d"
)

// Limiter throttles emission requests per source and holds a short lock per
// invoice so two workers never submit the same document concurrently. A nil
// Limiter is valid and allows everything.
type Limiter struct {
	bucket *TokenBucket
	locker *Locker

	rate    float64
	burst   int
	lockTTL time.Duration
}

// NewLimiter builds the limiter from configuration. It returns nil when rate
// limiting is disabled or Redis is not configured.
func NewLimiter(cfg config.Config) *Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	if cfg.RateLimit.Rate <= 0 || cfg.RateLimit.Burst <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &Limiter{
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.RateLimit.Rate,
		burst:   cfg.RateLimit.Burst,
		lockTTL: cfg.RateLimit.LockTTL,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil
}

// AllowSource takes one token from the bucket of the given source, typically
// a client address.
func (l *Limiter) AllowSource(ctx context.Context, source string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyEmissionSource, strings.TrimSpace(source)), l.rate, l.burst)
}

// TryLockInvoice claims the submission lock for an invoice. The returned
// token releases it.
func (l *Limiter) TryLockInvoice(ctx context.Context, id snowflake.ID) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyInvoiceLock, id), l.lockTTL)
}

func (l *Limiter) ReleaseInvoice(ctx context.Context, id snowflake.ID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyInvoiceLock, id), token)
}
