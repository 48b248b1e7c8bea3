package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	readyKey   = "fiscal:emission:ready"
	delayedKey = "fiscal:emission:delayed"
)

// promoteScript atomically moves due members from the delayed set onto the
// ready list so two workers never promote the same task.
const promoteScript = `
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, 100)
for _, member in ipairs(due) do
  redis.call("ZREM", KEYS[1], member)
  redis.call("LPUSH", KEYS[2], member)
end
return #due
`

type redisQueue struct {
	client  *redis.Client
	promote *redis.Script
}

// NewRedis returns a queue backed by a Redis list plus a sorted set for
// delayed tasks. Safe for multiple worker processes.
func NewRedis(client *redis.Client) Queue {
	return &redisQueue{
		client:  client,
		promote: redis.NewScript(promoteScript),
	}
}

func (q *redisQueue) Enqueue(ctx context.Context, task Task) error {
	encoded, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if task.NotBefore.After(time.Now()) {
		return q.client.ZAdd(ctx, delayedKey, redis.Z{
			Score:  float64(task.NotBefore.UnixMilli()),
			Member: string(encoded),
		}).Err()
	}
	return q.client.LPush(ctx, readyKey, encoded).Err()
}

func (q *redisQueue) Dequeue(ctx context.Context) (*Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		now := time.Now().UnixMilli()
		if err := q.promote.Run(ctx, q.client, []string{delayedKey, readyKey}, now).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, readyKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(res) < 2 {
			continue
		}
		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			// Drop undecodable entries instead of wedging the queue.
			continue
		}
		return &task, nil
	}
}
