// Package cache provides a Redis-backed cache for derived KPI snapshots.
// The cache is an optimization only: snapshots are always safe to discard
// and recompute from the archive, so every failure here degrades to a
// recomputation, never to an error for the caller.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flightmanagement/flight-archive/internal/models"
)

// KpiCache stores daily KPI snapshots keyed by date.
type KpiCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Config holds Redis cache configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New creates a KPI cache. The connection is verified lazily; an
// unreachable Redis makes every lookup a miss.
func New(cfg Config) *KpiCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &KpiCache{
		client: client,
		ttl:    cfg.TTL,
		logger: slog.Default().With(slog.String("component", "kpi-cache")),
	}
}

// NewWithClient creates a KPI cache on an existing client. Used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *KpiCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &KpiCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With(slog.String("component", "kpi-cache")),
	}
}

// Get returns the cached snapshot for a date, or false on a miss.
func (c *KpiCache) Get(ctx context.Context, date time.Time) (*models.DailyKpi, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key(date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache lookup failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var kpi models.DailyKpi
	if err := json.Unmarshal(data, &kpi); err != nil {
		c.logger.Warn("cached snapshot not decodable, discarding",
			slog.String("error", err.Error()))
		return nil, false
	}

	return &kpi, true
}

// Set overwrites the cached snapshot for a date.
func (c *KpiCache) Set(ctx context.Context, date time.Time, kpi *models.DailyKpi) {
	if c == nil {
		return
	}

	data, err := json.Marshal(kpi)
	if err != nil {
		c.logger.Warn("failed to marshal snapshot", slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, key(date), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", slog.String("error", err.Error()))
	}
}

// Close releases the Redis client.
func (c *KpiCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func key(date time.Time) string {
	return fmt.Sprintf("kpi:%s", date.UTC().Format("2006-01-02"))
}
