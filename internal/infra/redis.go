package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"

	"github.com/redis/go-redis/v9"
)

// NewRedis parses redisURL and pings the server before handing the client out.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

const reportKeyPrefix = "cash-register:report:"

// ReportCache stores rendered session reports in Redis.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached report for sessionID. A miss is (nil, nil).
func (c *ReportCache) Get(ctx context.Context, sessionID int64) (*dto.SessionReport, error) {
	raw, err := c.rdb.Get(ctx, reportKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report cache: get %d: %w", sessionID, err)
	}
	var report dto.SessionReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("report cache: decode %d: %w", sessionID, err)
	}
	return &report, nil
}

func (c *ReportCache) Put(ctx context.Context, report *dto.SessionReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("report cache: encode %d: %w", report.Session.ID, err)
	}
	return c.rdb.Set(ctx, reportKey(report.Session.ID), raw, c.ttl).Err()
}

func reportKey(sessionID int64) string {
	return reportKeyPrefix + strconv.FormatInt(sessionID, 10)
}
