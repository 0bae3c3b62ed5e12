package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/sentinel"
)

const (
	redisKeyAccess  = "ampairs:token:access"
	redisKeyRefresh = "ampairs:token:refresh"
)

// RedisStore keeps the token pair in Redis with TTLs derived from the stored
// expiries, for deployments where several client processes share one session.
type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisStore wraps an existing Redis connection.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, kind Kind) (string, error) {
	key, err := redisKey(kind)
	if err != nil {
		return "", err
	}
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Redis expiry already enforces the token lifetime.
		return "", fmt.Errorf("%s token: %w", kind, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s token: %w", kind, sentinel.ErrUnavailable)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, pair Pair) error {
	now := s.now()
	if err := s.setOne(ctx, redisKeyAccess, pair.AccessToken, pair.AccessExpiresAt.Sub(now)); err != nil {
		return err
	}
	return s.setOne(ctx, redisKeyRefresh, pair.RefreshToken, pair.RefreshExpiresAt.Sub(now))
}

func (s *RedisStore) setOne(ctx context.Context, key, value string, ttl time.Duration) error {
	if value == "" || ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, redisKeyAccess, redisKeyRefresh).Err(); err != nil {
		return fmt.Errorf("redis clear tokens: %w", err)
	}
	return nil
}

func redisKey(kind Kind) (string, error) {
	switch kind {
	case KindAccess:
		return redisKeyAccess, nil
	case KindRefresh:
		return redisKeyRefresh, nil
	default:
		return "", fmt.Errorf("unknown token kind %q: %w", kind, sentinel.ErrInvalidInput)
	}
}
