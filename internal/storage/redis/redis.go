package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/storage"

	"github.com/redis/go-redis/v9"
)

// watchListKey holds the cached snapshot of all watches, used by /status and
// the ops API so they don't hit Postgres on every call.
const watchListKey = "watches:all"

type RedisRepo struct {
	client     *redis.Client
	DefaultTTL time.Duration
}

func New(ctx context.Context, address string, db int, defaultTTL time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	rdb := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client:     rdb,
		DefaultTTL: defaultTTL,
	}, nil
}

func (r *RedisRepo) SaveWatchList(ctx context.Context, watches []models.Watch) error {
	const op = "storage.redis.SaveWatchList"

	data, err := json.Marshal(watches)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, watchListKey, data, r.DefaultTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) WatchList(ctx context.Context) ([]models.Watch, error) {
	const op = "storage.redis.WatchList"

	data, err := r.client.Get(ctx, watchListKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, storage.ErrCacheMiss
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var watches []models.Watch
	if err := json.Unmarshal(data, &watches); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return watches, nil
}

// Invalidate drops the cached list after any watch mutation.
func (r *RedisRepo) Invalidate(ctx context.Context) error {
	const op = "storage.redis.Invalidate"

	if err := r.client.Del(ctx, watchListKey).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) Close() {
	r.client.Close()
}
