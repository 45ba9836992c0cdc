package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/pkg/errors"
)

// PageCache keeps fetched page bodies in Redis so repeated runs within the
// TTL window do not hammer the chamber sites. It is an optional layer; the
// page source works without one.
type PageCache struct {
	client *redis.Client
	logger *zap.Logger
}

type PageCacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewPageCache(cfg PageCacheConfig, logger *zap.Logger) (*PageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Page cache connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &PageCache{
		client: client,
		logger: logger,
	}, nil
}

func pageKey(url string) string {
	return "kokkai:page:" + url
}

// Get returns the cached body for url. A miss or a Redis error both read
// as not-found; the caller falls through to the network either way.
func (c *PageCache) Get(ctx context.Context, url string) (string, bool) {
	value, err := c.client.Get(ctx, pageKey(url)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Debug("Page cache get failed", zap.String("url", url), zap.Error(err))
		return "", false
	}
	return value, true
}

// Set stores a page body. Failures are logged and swallowed; caching is
// best-effort.
func (c *PageCache) Set(ctx context.Context, url, html string, ttl time.Duration) {
	if err := c.client.Set(ctx, pageKey(url), html, ttl).Err(); err != nil {
		c.logger.Debug("Page cache set failed", zap.String("url", url), zap.Error(err))
	}
}

func (c *PageCache) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Page cache disconnected")
	return nil
}
