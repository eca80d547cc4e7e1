package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errx "github.com/frameiq/agent-server/internal/core/error"
)

// RedisStore keeps hit timestamps in a sorted set per key, scored by unix
// nanoseconds, so windows are shared across instances.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func windowKey(key string) string {
	return "ratelimit:" + key
}

func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	rkey := windowKey(key)
	cutoff := s.now().Add(-window).UnixNano()

	if err := s.client.ZRemRangeByScore(ctx, rkey, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return 0, time.Time{}, errx.WrapRedis(err)
	}

	oldest, err := s.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
	if err != nil {
		return 0, time.Time{}, errx.WrapRedis(err)
	}
	count, err := s.client.ZCard(ctx, rkey).Result()
	if err != nil {
		return 0, time.Time{}, errx.WrapRedis(err)
	}
	if count == 0 || len(oldest) == 0 {
		return 0, time.Time{}, nil
	}
	return int(count), time.Unix(0, int64(oldest[0].Score)), nil
}

func (s *RedisStore) Record(ctx context.Context, key string, window time.Duration) error {
	rkey := windowKey(key)
	now := s.now()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, rkey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}
