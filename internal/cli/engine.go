package cli

import (
	"fmt"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/metrics"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/pipeline"
	"github.com/ppiankov/corroborate/internal/provider"
	"github.com/ppiankov/corroborate/internal/worker"
)

// app bundles what a command needs to verify claims
type app struct {
	cfg      *model.Config
	registry *provider.Registry
	engine   *pipeline.Engine
	metrics  *metrics.Recorder
}

// newApp builds the provider table once and the engine on top of it
func newApp(cfg *model.Config, useCache bool) *app {
	opts := []provider.RegistryOption{
		provider.WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
	}
	if useCache {
		if c := cache.New(cfg.Cache); c != nil {
			opts = append(opts, provider.WithResultCache(c, cacheTTL(cfg.Cache)))
		}
	}

	registry := provider.NewRegistry(cfg, opts...)
	recorder := metrics.NewRecorder()

	engine := pipeline.NewEngine(registry,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(recorder),
		pipeline.WithAuthority(&cfg.Authority),
		pipeline.WithDeadline(cfg.Engine.Deadline),
	)

	return &app{
		cfg:      cfg,
		registry: registry,
		engine:   engine,
		metrics:  recorder,
	}
}

// cacheTTL is the lifetime of cached provider answers: the longest configured layer
func cacheTTL(c model.CacheConfig) time.Duration {
	if c.DiskDir != "" && c.DiskTTL > c.MemoryTTL {
		return c.DiskTTL
	}
	return c.MemoryTTL
}

// resolveQuota picks the provider quota: a named tier wins over an explicit
// quota, which wins over the configured default
func resolveQuota(cfg *model.Config, tier string, quota int, quotaSet bool) (int, error) {
	if tier != "" {
		q, ok := model.QuotaForTier(tier)
		if !ok {
			return 0, fmt.Errorf("unknown tier %q (use free, pro or enterprise)", tier)
		}
		return q, nil
	}
	if quotaSet {
		return quota, nil
	}
	return cfg.Engine.DefaultQuota, nil
}
