package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/hybridrec/core"
)

// RedisConfig Redis 连接配置。KeyPrefix 会拼在所有 key 之前，多个服务共用实例时区分命名空间。
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// RedisStore 是 Redis 实现的 KeyValueStore。
// 生产环境用于 NLP 结果缓存与查询统计，多实例部署时共享。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 建立连接并 Ping，失败时返回错误。
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return r.client.Set(ctx, r.key(key), value, expiration(ttl)).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func expiration(ttl []int) time.Duration {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Duration(ttl[0]) * time.Second
	}
	return 0
}

func (r *RedisStore) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	return r.client.ZIncrBy(ctx, r.key(key), delta, member).Result()
}

func (r *RedisStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.ZRevRange(ctx, r.key(key), start, stop).Result()
}

func (r *RedisStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	score, err := r.client.ZScore(ctx, r.key(key), member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, core.ErrStoreNotFound
	}
	return score, err
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// 确保 RedisStore 实现了 core.KeyValueStore 与 core.Pinger 接口
var (
	_ core.KeyValueStore = (*RedisStore)(nil)
	_ core.Pinger        = (*RedisStore)(nil)
)
