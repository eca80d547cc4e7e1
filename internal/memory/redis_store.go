package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/frameiq/agent-server/internal/core/error"
)

// RedisStore persists session records as JSON values with a TTL, so expiry
// is enforced by Redis itself.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:meta", sessionID)
}

func (s *RedisStore) Touch(ctx context.Context, sessionID string, delta int) (*Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sess == nil {
		sess = &Session{
			SessionID: sessionID,
			CreatedAt: now,
		}
	}
	sess.LastAccessed = now
	sess.MessageCount += delta

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, errx.New(err, 500, "encode session record")
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return nil, errx.WrapRedis(err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errx.WrapRedis(err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errx.New(err, 500, "decode session record")
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
