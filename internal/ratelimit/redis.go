package ratelimit

import (
	"context"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "contact:ratelimit:"

// RedisStore keeps hit timestamps in a Redis sorted set scored by
// nanosecond timestamp, so the sliding window is shared across instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store whose keys expire after ttl of inactivity.
// ttl should comfortably exceed the guard window.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Count removes entries older than since and returns the remaining cardinality.
func (s *RedisStore) Count(ctx context.Context, key string, since time.Time) (int, error) {
	k := redisKeyPrefix + key

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(since.UnixNano(), 10))
	card := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

// Record adds a hit member scored by its timestamp and refreshes the key TTL.
func (s *RedisStore) Record(ctx context.Context, key string, at time.Time) error {
	k := redisKeyPrefix + key

	// Members must be unique even when two hits land on the same nanosecond.
	member, err := gonanoid.New()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(at.UnixNano()), Member: member})
	pipe.Expire(ctx, k, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}
