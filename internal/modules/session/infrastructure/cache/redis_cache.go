package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 10 * time.Minute

// FileListCache keeps the rendered file list of a session in redis
type FileListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFileListCache(client *redis.Client, ttl time.Duration) *FileListCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileListCache{client: client, ttl: ttl}
}

func Key(sessionID string) string {
	return "session:" + sessionID + ":files"
}

// Get returns the cached payload; ok is false on a miss.
func (c *FileListCache) Get(ctx context.Context, sessionID string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

func (c *FileListCache) Set(ctx context.Context, sessionID string, payload []byte) error {
	if err := c.client.Set(ctx, Key(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *FileListCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
