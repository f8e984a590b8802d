package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token pair in Redis. Headless deployments running
// several replicas under one service account point them at the same prefix
// so a token refreshed by one replica is picked up by the rest.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "talentverify"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) accessKey() string  { return s.prefix + ":access" }
func (s *RedisStore) refreshKey() string { return s.prefix + ":refresh" }

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.accessKey())
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.refreshKey())
}

func (s *RedisStore) SetAccessToken(ctx context.Context, access string) error {
	if err := s.client.Set(ctx, s.accessKey(), access, 0).Err(); err != nil {
		return fmt.Errorf("redis set access: %w", err)
	}
	return nil
}

func (s *RedisStore) SetTokens(ctx context.Context, access, refresh string) error {
	if err := s.SetAccessToken(ctx, access); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.refreshKey(), refresh, 0).Err(); err != nil {
		return fmt.Errorf("redis set refresh: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.accessKey(), s.refreshKey()).Err(); err != nil {
		return fmt.Errorf("redis clear tokens: %w", err)
	}
	return nil
}
