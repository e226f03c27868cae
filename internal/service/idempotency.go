package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ClaimState is what a caller learns when claiming an idempotency key.
type ClaimState int

const (
	// ClaimAcquired means the caller owns the key and must Complete or Release it.
	ClaimAcquired ClaimState = iota
	// ClaimPending means another request holds the key and has not settled.
	ClaimPending
	// ClaimDone means a request with this key already succeeded.
	ClaimDone
)

const (
	idempotencyPending = "pending"
	idempotencyDone    = "done"
)

// IdempotencyStore tracks request keys through pending and done states.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (ClaimState, error)
	Complete(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *goredis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string) (ClaimState, error) {
	ok, err := s.client.SetNX(ctx, key, idempotencyPending, s.ttl).Result()
	if err != nil {
		return ClaimPending, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return ClaimAcquired, nil
	}

	state, err := s.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		// released between SETNX and GET; the caller may retry
		return ClaimPending, nil
	case err != nil:
		return ClaimPending, fmt.Errorf("read idempotency key: %w", err)
	case state == idempotencyDone:
		return ClaimDone, nil
	default:
		return ClaimPending, nil
	}
}

// Complete marks the key as settled for the rest of its TTL.
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string) error {
	if err := s.client.Set(ctx, key, idempotencyDone, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// NoopIdempotencyStore accepts every key. Used when redis is not configured.
type NoopIdempotencyStore struct{}

func (NoopIdempotencyStore) Claim(context.Context, string) (ClaimState, error) {
	return ClaimAcquired, nil
}
func (NoopIdempotencyStore) Complete(context.Context, string) error { return nil }
func (NoopIdempotencyStore) Release(context.Context, string) error  { return nil }
