package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finance-form/domain"
)

const formKeyPrefix = "form:"

// RedisFieldRepository keeps committed values in one hash per form.
type RedisFieldRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFieldRepository(addr string, ttl time.Duration) *RedisFieldRepository {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return NewRedisFieldRepositoryWithClient(rdb, ttl)
}

func NewRedisFieldRepositoryWithClient(client *redis.Client, ttl time.Duration) *RedisFieldRepository {
	return &RedisFieldRepository{client: client, ttl: ttl}
}

// Ping checks the connection, used at startup.
func (r *RedisFieldRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisFieldRepository) Save(
	ctx context.Context,
	formID string,
	field domain.FieldID,
	value string,
) error {
	key := formKeyPrefix + formID
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, string(field), value)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save field %s: %w", field, err)
	}
	return nil
}

func (r *RedisFieldRepository) Close() error {
	return r.client.Close()
}
