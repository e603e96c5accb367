package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 10 * time.Minute

// ResponseCache stores JSON encoded responses in Redis under "<resource>:<hash>"
// keys. A nil *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewResponseCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ResponseCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{rdb: rdb, ttl: ttl, logger: logger}
}

type queryKeyParts struct {
	Resource string            `json:"resource"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Filters  map[string]string `json:"filters"`
}

// QueryKey builds a deterministic cache key for a filtered, paginated query.
// The parts are JSON encoded before hashing, so separators inside filter
// values cannot make two different queries share a key.
func QueryKey(resourceType string, filters map[string]string, page, pageSize int) string {
	if len(filters) == 0 {
		filters = nil
	}
	// Strings and ints always encode; map keys are written sorted
	raw, _ := json.Marshal(queryKeyParts{
		Resource: resourceType,
		Page:     page,
		PageSize: pageSize,
		Filters:  filters,
	})

	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s", resourceType, hex.EncodeToString(hash[:]))
}

// Get decodes the cached value into dest. It reports false on a miss.
func (c *ResponseCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// InvalidateCache deletes all cached keys for the given resource type
func (c *ResponseCache) InvalidateCache(ctx context.Context, resourceType string) error {
	if c == nil {
		return nil
	}

	// SCAN instead of KEYS so large keyspaces do not block Redis
	iter := c.rdb.Scan(ctx, 0, resourceType+":*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error during SCAN iteration: %w", err)
	}

	return nil
}

// InvalidateCacheAsync invalidates the cache for a resource type without blocking the caller
func (c *ResponseCache) InvalidateCacheAsync(resourceType string) {
	if c == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.InvalidateCache(ctx, resourceType); err != nil {
			c.logger.Warn("Cache invalidation failed",
				zap.String("resource_type", resourceType),
				zap.Error(err))
		}
	}()
}
