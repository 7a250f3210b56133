package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached weather snapshots
	CacheKeyPrefix = "weather:"
	// DefaultCacheTTL is used when Set is given no ttl
	DefaultCacheTTL = 10 * time.Minute
	// MinCacheTTL is 5 minutes
	MinCacheTTL = 5 * time.Minute
	// MaxCacheTTL is 30 minutes
	MaxCacheTTL = 30 * time.Minute
)

// CacheService stores JSON values in the key-value store under CacheKeyPrefix.
type CacheService struct {
	kv *KVStore
}

func NewCacheService(kv *KVStore) *CacheService {
	return &CacheService{kv: kv}
}

// Get decodes the cached value into dest. A miss is (false, nil); an
// unreachable store is reported as an error so callers can log and move on.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	res := c.kv.Get(ctx, CacheKeyPrefix+key)
	switch res.Status {
	case Unavailable:
		return false, res.Err
	case Miss:
		return false, nil
	}

	if err := json.Unmarshal([]byte(res.Value), dest); err != nil {
		// garbage is a miss; drop it so the next lookup refetches cleanly
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set stores value with ttl clamped to [MinCacheTTL, MaxCacheTTL].
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl < MinCacheTTL {
		ttl = MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	return c.kv.Set(ctx, CacheKeyPrefix+key, string(data), ttl)
}

// Delete removes a cached value.
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.kv.Delete(ctx, CacheKeyPrefix+key)
}
