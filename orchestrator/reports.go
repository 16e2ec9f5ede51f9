package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rbitracker/types"

	"github.com/redis/go-redis/v9"
)

// ReportCache keeps finished run reports in Redis, keyed by date, so
// they stay retrievable after the run without touching the store.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache connects to Redis and verifies the connection.
func NewReportCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &ReportCache{client: client, ttl: ttl}, nil
}

func reportKey(date string) string {
	return "reports:" + date
}

// Save caches the report under its date.
func (c *ReportCache) Save(ctx context.Context, report *types.RunReport) error {
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return c.client.Set(ctx, reportKey(report.Date), value, c.ttl).Err()
}

// Load returns the cached report for date, or nil when none exists.
func (c *ReportCache) Load(ctx context.Context, date string) (*types.RunReport, error) {
	value, err := c.client.Get(ctx, reportKey(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", date, err)
	}

	var report types.RunReport
	if err := json.Unmarshal(value, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", date, err)
	}
	return &report, nil
}

// Close releases the Redis connection.
func (c *ReportCache) Close() error {
	return c.client.Close()
}
