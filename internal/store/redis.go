package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultProgressTTL bounds how long stale job progress lingers after a
// crashed or abandoned run.
const DefaultProgressTTL = 2 * time.Hour

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// ProgressCache keeps live per-job run progress in Redis hashes so the
// management API can report on in-flight research runs.
type ProgressCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProgressCache(rdb *redis.Client, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = DefaultProgressTTL
	}
	return &ProgressCache{rdb: rdb, ttl: ttl}
}

func jobKey(jobID string) string { return "job:" + jobID }

// Set records the latest status and detail line for a job.
func (c *ProgressCache) Set(ctx context.Context, jobID, status, detail string) error {
	key := jobKey(jobID)
	if err := c.rdb.HSet(ctx, key,
		"status", status,
		"detail", detail,
		"updated_at", time.Now().UTC().Format(time.RFC3339),
	).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, key, c.ttl).Err()
}

// Get returns the job's progress fields, or an empty map when unknown.
func (c *ProgressCache) Get(ctx context.Context, jobID string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, jobKey(jobID)).Result()
}

// Clear removes a job's progress entry.
func (c *ProgressCache) Clear(ctx context.Context, jobID string) error {
	return c.rdb.Del(ctx, jobKey(jobID)).Err()
}
