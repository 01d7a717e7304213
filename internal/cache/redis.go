package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
)

const keyPrefix = "backoffice:snapshot:"

// RedisStore keeps snapshots in Redis so several replicas share them.
type RedisStore struct {
	client *redis.Client
	codec  *Codec
	ttl    time.Duration
}

// NewRedisStore creates a store on client.
func NewRedisStore(client *redis.Client, ttl time.Duration, codec *Codec) *RedisStore {
	return &RedisStore{client: client, codec: codec, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, owner string) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, keyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	return s.codec.Decode(data)
}

func (s *RedisStore) Put(ctx context.Context, snap *domain.Snapshot) error {
	data, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+snap.Owner, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, keyPrefix+owner).Err(); err != nil {
		return fmt.Errorf("redis delete snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
