package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jasonpanggit/eol-agents/internal/applog"
)

// RedisStore is a StorageProvider backed by Redis, grounded on the
// teacher's core.RedisClient: namespaced keys, a dedicated database, and a
// connect-time Ping that degrades to an error the caller can treat as
// "persistent tier unavailable" rather than a hard failure.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    applog.Logger
}

// RedisStoreOptions configures a RedisStore.
type RedisStoreOptions struct {
	URL       string
	DB        int
	Namespace string
	Logger    applog.Logger
}

// NewRedisStore connects to Redis and verifies reachability with a 5s Ping.
// To tolerate the persistent store being absent at startup, a ping
// failure is returned to the caller so it can fall back to memory-only
// operation instead of crashing the process.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.DB >= 0 && opts.DB <= 15 {
		parsed.DB = opts.DB
	}
	client := redis.NewClient(parsed)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.NoOp{}
	}
	logger.Info("connected to redis cache store", map[string]interface{}{
		"namespace": opts.Namespace,
		"db":        parsed.DB,
	})

	return &RedisStore{client: client, namespace: opts.Namespace, logger: logger}, nil
}

func (r *RedisStore) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Get implements StorageProvider.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Set implements StorageProvider.
func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

// Del implements StorageProvider.
func (r *RedisStore) Del(ctx context.Context, keys ...string) error {
	formatted := make([]string, len(keys))
	for i, k := range keys {
		formatted[i] = r.key(k)
	}
	return r.client.Del(ctx, formatted...).Err()
}

// AddToIndex implements StorageProvider using ZADD.
func (r *RedisStore) AddToIndex(ctx context.Context, indexKey string, score float64, member string) error {
	return r.client.ZAdd(ctx, r.key(indexKey), &redis.Z{Score: score, Member: member}).Err()
}

// Members implements StorageProvider using ZRANGE 0 -1.
func (r *RedisStore) Members(ctx context.Context, indexKey string) ([]string, error) {
	return r.client.ZRange(ctx, r.key(indexKey), 0, -1).Result()
}

// RemoveFromIndex implements StorageProvider using ZREM.
func (r *RedisStore) RemoveFromIndex(ctx context.Context, indexKey string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.client.ZRem(ctx, r.key(indexKey), args...).Err()
}

// Ping implements StorageProvider.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
