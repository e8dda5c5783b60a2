// Package dedup records which membership events have already been delivered.
// The marker is observability only: a repeated event ID bumps a metric and a
// log line, while enforcement still runs (safe because attachment is
// idempotent).
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "orgguard:delivery:"

// RedisMarker stores delivery markers with a TTL, so the set stays bounded
// without a cleanup job.
type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMarker(client *redis.Client, ttl time.Duration) (*RedisMarker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMarker{client: client, ttl: ttl}, nil
}

// MarkSeen records the event ID and reports whether this was its first
// delivery.
func (m *RedisMarker) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	first, err := m.client.SetNX(ctx, keyPrefix+eventID, 1, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark delivery: %w", err)
	}
	return first, nil
}
