package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snapkeep/printworks/config"
)

// RedisQueue is the production queue driver.
//
// Ready messages live on a list. Receiving atomically moves a message onto a
// processing list and records a lease in a sorted set scored by its expiry.
// A background reclaimer returns expired leases to the ready list, which is
// what makes crashed workers redeliverable.
type RedisQueue struct {
	rdb  *redis.Client
	log  *slog.Logger
	stop context.CancelFunc

	ready      string
	processing string
	leases     string

	waitTime   time.Duration
	visibility time.Duration

	// OnReclaim, when set, is invoked once per reclaimed message. Used to
	// feed the queue metrics without coupling this package to them. Set it
	// right after NewRedis, before the first tick of the reclaimer.
	OnReclaim func()
}

// NewRedis builds a RedisQueue and starts its lease reclaimer.
// Call Close to stop the reclaimer.
func NewRedis(rdb *redis.Client, cfg config.Queue, log *slog.Logger) *RedisQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &RedisQueue{
		rdb:        rdb,
		log:        log,
		stop:       cancel,
		ready:      cfg.Key,
		processing: cfg.Key + ":processing",
		leases:     cfg.Key + ":leases",
		waitTime:   cfg.WaitTime,
		visibility: cfg.VisibilityTimeout,
	}
	go q.reclaimExpired(ctx)
	return q
}

// Close stops the background reclaimer. It does not touch in-flight leases;
// another worker's reclaimer will recover them once they expire.
func (q *RedisQueue) Close() { q.stop() }

func (q *RedisQueue) Push(ctx context.Context, orderID string) error {
	payload, err := encode(orderID)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.ready, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context) (*Message, error) {
	raw, err := q.rdb.BLMove(ctx, q.ready, q.processing, "RIGHT", "LEFT", q.waitTime).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // empty poll, not an error
		}
		return nil, fmt.Errorf("queue/redis: receive: %w", err)
	}

	expiry := float64(time.Now().Add(q.visibility).Unix())
	if err := q.rdb.ZAdd(ctx, q.leases, redis.Z{Score: expiry, Member: raw}).Err(); err != nil {
		// The message is on the processing list without a lease; put it
		// back so it is not stranded.
		q.requeue(ctx, raw)
		return nil, fmt.Errorf("queue/redis: lease: %w", err)
	}

	return decode([]byte(raw))
}

func (q *RedisQueue) Delete(ctx context.Context, msg *Message) error {
	pipe := q.rdb.Pipeline()
	pipe.LRem(ctx, q.processing, 1, msg.receipt)
	pipe.ZRem(ctx, q.leases, msg.receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue/redis: delete: %w", err)
	}
	return nil
}

func (q *RedisQueue) requeue(ctx context.Context, raw string) {
	pipe := q.rdb.Pipeline()
	pipe.LRem(ctx, q.processing, 1, raw)
	pipe.ZRem(ctx, q.leases, raw)
	pipe.LPush(ctx, q.ready, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		q.log.Error("queue: requeue failed", "error", err)
	}
}

// reclaimExpired moves messages whose lease has lapsed back onto the ready
// list. Runs every second until ctx is cancelled.
func (q *RedisQueue) reclaimExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := strconv.FormatInt(time.Now().Unix(), 10)
		expired, err := q.rdb.ZRangeByScore(ctx, q.leases, &redis.ZRangeBy{
			Min: "-inf",
			Max: now,
		}).Result()
		if err != nil || len(expired) == 0 {
			continue
		}

		for _, raw := range expired {
			q.log.Warn("queue: reclaiming expired lease", "payload", raw)
			q.requeue(ctx, raw)
			if q.OnReclaim != nil {
				q.OnReclaim()
			}
		}
	}
}
