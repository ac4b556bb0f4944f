package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rivetpay/gateway/internal/config"
)

const (
	readyKey     = "gateway:jobs:ready"
	delayedKey   = "gateway:jobs:delayed"
	inflightKey  = "gateway:jobs:inflight"
	deadlinesKey = "gateway:jobs:deadlines"

	receiveBlock  = 2 * time.Second
	promoteBatch  = 50
	reclaimPeriod = 10 * time.Second
)

// RedisQueue implements Dispatcher and Consumer on Redis. Ready jobs live
// in a list, delayed jobs in a sorted set scored by their ready time.
// Received jobs move to an in-flight list with a visibility deadline;
// jobs whose deadline passes without an ack are pushed back to ready.
type RedisQueue struct {
	client     *redis.Client
	visibility time.Duration
	logger     *slog.Logger

	mu          sync.Mutex
	lastReclaim time.Time
}

func NewRedisQueue(cfg config.RedisConfig, visibility time.Duration, logger *slog.Logger) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisQueue{
		client:     client,
		visibility: visibility,
		logger:     logger,
	}
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job, opts ...EnqueueOption) error {
	o := applyOptions(opts)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if o.delay > 0 {
		readyAt := float64(time.Now().Add(o.delay).UnixMilli())
		if err := q.client.ZAdd(ctx, delayedKey, redis.Z{Score: readyAt, Member: data}).Err(); err != nil {
			return fmt.Errorf("enqueue delayed job: %w", err)
		}
		return nil
	}

	if err := q.client.LPush(ctx, readyKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context) (*Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := q.promoteDue(ctx); err != nil {
			q.logger.Error("promote delayed jobs failed", "error", err)
		}
		if q.shouldReclaim() {
			if err := q.reclaimExpired(ctx); err != nil {
				q.logger.Error("reclaim in-flight jobs failed", "error", err)
			}
		}

		raw, err := q.client.BLMove(ctx, readyKey, inflightKey, "RIGHT", "LEFT", receiveBlock).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("receive job: %w", err)
		}

		deadline := float64(time.Now().Add(q.visibility).UnixMilli())
		if err := q.client.ZAdd(ctx, deadlinesKey, redis.Z{Score: deadline, Member: raw}).Err(); err != nil {
			q.logger.Error("record job deadline failed", "error", err)
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			// Poison entry. Drop it rather than redeliver forever.
			q.logger.Error("discarding malformed job", "error", err)
			q.discard(ctx, raw)
			continue
		}

		return &Delivery{Job: job, receipt: raw}, nil
	}
}

func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	q.discard(ctx, d.receipt)
	return nil
}

// promoteDue moves delayed jobs whose ready time has passed onto the ready
// list. ZRem arbitrates between concurrent consumers: only the caller that
// removes the member gets to push it.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: promoteBatch,
	}).Result()
	if err != nil {
		return err
	}

	for _, m := range members {
		removed, err := q.client.ZRem(ctx, delayedKey, m).Result()
		if err != nil {
			return err
		}
		if removed == 1 {
			if err := q.client.LPush(ctx, readyKey, m).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// shouldReclaim elects at most one consumer per reclaim period. Receive is
// called concurrently from every pool goroutine, so the timestamp check and
// update must be a single atomic step.
func (q *RedisQueue) shouldReclaim() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if time.Since(q.lastReclaim) < reclaimPeriod {
		return false
	}
	q.lastReclaim = time.Now()
	return true
}

// reclaimExpired pushes in-flight jobs whose visibility deadline passed
// back to the ready list. This is the crash-recovery path for workers that
// died mid-job.
func (q *RedisQueue) reclaimExpired(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := q.client.ZRangeByScore(ctx, deadlinesKey, &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: promoteBatch,
	}).Result()
	if err != nil {
		return err
	}

	for _, m := range members {
		removed, err := q.client.ZRem(ctx, deadlinesKey, m).Result()
		if err != nil {
			return err
		}
		if removed == 1 {
			q.client.LRem(ctx, inflightKey, 1, m)
			if err := q.client.LPush(ctx, readyKey, m).Err(); err != nil {
				return err
			}
			q.logger.Warn("redelivering job past visibility timeout")
		}
	}
	return nil
}

func (q *RedisQueue) discard(ctx context.Context, raw string) {
	q.client.LRem(ctx, inflightKey, 1, raw)
	q.client.ZRem(ctx, deadlinesKey, raw)
}
