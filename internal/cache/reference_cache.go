package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"leadrouter_backend/internal/logger"
)

const (
	KeyActiveCategories = "reference:categories:active"
	KeyActiveCities     = "reference:cities:active"

	defaultTTL = 10 * time.Minute
)

// ReferenceCache - кэш списков справочников поверх Redis. Если Redis
// недоступен, кэш прозрачно выключается и чтение идет в базу.
type ReferenceCache struct {
	client *redis.Client

	warnedUnavailable atomic.Bool
}

func NewReferenceCache(host string, port int, password string) *ReferenceCache {
	if host == "" {
		return &ReferenceCache{client: nil}
	}
	if port == 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, reference cache disabled", "error", err.Error())
		_ = client.Close()
		return &ReferenceCache{client: nil}
	}

	logger.Info("Reference cache connected", "addr", client.Options().Addr)
	return &ReferenceCache{client: client}
}

func (c *ReferenceCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *ReferenceCache) warnOnce(err error) {
	if c.warnedUnavailable.CompareAndSwap(false, true) {
		logger.Warn("Reference cache bypassed", "error", err.Error())
	}
}

// Get читает значение в dest. false - промах или кэш выключен.
func (c *ReferenceCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.warnOnce(err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

func (c *ReferenceCache) Set(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, defaultTTL).Err(); err != nil {
		c.warnOnce(err)
	}
}

// Invalidate сбрасывает ключи после изменения справочников.
func (c *ReferenceCache) Invalidate(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.warnOnce(err)
	}
}

func (c *ReferenceCache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}
