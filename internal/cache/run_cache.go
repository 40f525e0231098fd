package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

const (
	runKeyPrefix     = "risk:run"
	runScanBatchSize = 100
)

// RunKey identifies which latest run a cache entry holds.
type RunKey struct {
	Source     string
	WindowDays int
}

// RunCache keeps the most recent analysis run per data source and window.
type RunCache interface {
	GetLatest(ctx context.Context, key RunKey) (*domain.AnalysisRun, bool, error)
	SetLatest(ctx context.Context, key RunKey, run *domain.AnalysisRun) error
	// InvalidateAll drops every cached run and reports how many were removed.
	InvalidateAll(ctx context.Context) (int, error)
}

type redisRunCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRunCache struct{}

func NewRunCache(cfg config.CacheConfig) (RunCache, error) {
	if !cfg.Enabled {
		return &noopRunCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRunCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopRunCache() RunCache {
	return &noopRunCache{}
}

func (c *redisRunCache) GetLatest(ctx context.Context, key RunKey) (*domain.AnalysisRun, bool, error) {
	payload, err := c.client.Get(ctx, buildRunKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var run domain.AnalysisRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, false, fmt.Errorf("decode analysis run cache: %w", err)
	}

	return &run, true, nil
}

func (c *redisRunCache) SetLatest(ctx context.Context, key RunKey, run *domain.AnalysisRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode analysis run cache: %w", err)
	}

	if err := c.client.Set(ctx, buildRunKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRunCache) InvalidateAll(ctx context.Context) (int, error) {
	return deleteKeysWithPrefix(ctx, c.client, runKeyPrefix, runScanBatchSize)
}

func (n *noopRunCache) GetLatest(ctx context.Context, key RunKey) (*domain.AnalysisRun, bool, error) {
	return nil, false, nil
}

func (n *noopRunCache) SetLatest(ctx context.Context, key RunKey, run *domain.AnalysisRun) error {
	return nil
}

func (n *noopRunCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

func buildRunKey(key RunKey) string {
	return fmt.Sprintf("%s:%s", runKeyPrefix, runKeyHash(key))
}

func runKeyHash(key RunKey) string {
	parts := []string{
		"source=" + strings.ToLower(strings.TrimSpace(key.Source)),
		"window=" + strconv.Itoa(key.WindowDays),
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
