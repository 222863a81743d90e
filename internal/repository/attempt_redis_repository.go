package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAttemptRepository stores the whole attempt set as one JSON value,
// so a single SET replaces it atomically.
type redisAttemptRepository struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

type RedisAttemptOption func(*redisAttemptRepository)

// WithRedisKey overrides the key holding the attempt set
func WithRedisKey(key string) RedisAttemptOption {
	return func(r *redisAttemptRepository) { r.key = key }
}

// WithRedisTTL expires the attempt set after ttl without writes.
// Set it to the rate limit window so idle state cleans itself up.
func WithRedisTTL(ttl time.Duration) RedisAttemptOption {
	return func(r *redisAttemptRepository) { r.ttl = ttl }
}

// NewRedisAttemptRepository creates an AttemptRepository backed by redis
func NewRedisAttemptRepository(rdb *redis.Client, opts ...RedisAttemptOption) AttemptRepository {
	r := &redisAttemptRepository{
		rdb: rdb,
		key: "contact:ratelimit",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *redisAttemptRepository) Load(ctx context.Context) ([]Attempt, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attempts from redis: %w", err)
	}

	var attempts []Attempt
	if err := json.Unmarshal(raw, &attempts); err != nil {
		return nil, fmt.Errorf("failed to decode attempts from redis: %w", err)
	}
	return attempts, nil
}

func (r *redisAttemptRepository) Save(ctx context.Context, attempts []Attempt) error {
	if len(attempts) == 0 {
		if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
			return fmt.Errorf("failed to clear attempts in redis: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write attempts to redis: %w", err)
	}
	return nil
}
