package repository

import (
	"context"
	"fmt"
	"time"

	"postavka/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisDedupStore suppresses duplicate notifications with SETNX keys.
type RedisDedupStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{
		client: client,
		prefix: "notify_sent:",
	}
}

// MarkSent claims the key for ttl. Returns false when another worker already
// sent this notification.
func (r *RedisDedupStore) MarkSent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return ok, nil
}

func (r *RedisDedupStore) ClearSent(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear sent mark: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
