// Package cache provides the key/value cache used to store computed analytics
// results, with a Redis adapter and an in-process fallback.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TTL classes for cached analytics results
const (
	TTLRealTime  = 30 * time.Second
	TTLVeryShort = time.Minute
	TTLShort     = 5 * time.Minute
	TTLMedium    = 15 * time.Minute
	TTLLong      = time.Hour
	TTLVeryLong  = 24 * time.Hour
)

// Key prefixes, one per cached operation
const (
	PrefixSingleMetric       = "analytics:single_metric"
	PrefixMultiReport        = "analytics:multi_report"
	PrefixTrendAnalysis      = "analytics:trend_analysis"
	PrefixHistorical         = "analytics:historical"
	PrefixHistoricalAverages = "analytics:historical_averages"
	PrefixComprehensive      = "analytics:comprehensive"
	PrefixLatest             = "analytics:latest"
)

// Service is a string key/value store with per-entry expiry
type Service interface {
	// Get returns false without error on a miss
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// ClearPattern removes every key matching a glob pattern and returns how many were removed
	ClearPattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Observer is notified of cache lookups
type Observer interface {
	CacheHit()
	CacheMiss()
}

// GetJSON decodes a cached value into dest
func GetJSON(ctx context.Context, c Service, key string, dest any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decode cached value %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value as JSON
func SetJSON(ctx context.Context, c Service, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", key, err)
	}
	return c.Set(ctx, key, string(raw), ttl)
}
