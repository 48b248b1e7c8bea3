// Package emission wires the task queue and the worker pool.
package emission

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fiscal/internal/config"
	"github.com/smallbiznis/fiscal/internal/emission/queue"
	"github.com/smallbiznis/fiscal/internal/emission/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewQueue returns the Redis-backed queue when an address is configured,
// otherwise a process-local one.
func NewQueue(cfg config.Config, logger *zap.Logger) queue.Queue {
	if cfg.RedisAddr == "" {
		logger.Named("emission").Info("redis not configured, using in-process queue")
		return queue.NewMemory()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return queue.NewRedis(client)
}

var Module = fx.Module("emission",
	fx.Provide(NewQueue),
	fx.Provide(worker.NewPool),
	fx.Invoke(worker.Run),
)
