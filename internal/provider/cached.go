package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
)

// cachedVerifier serves repeated statements from a cache. Only successful
// responses are stored, so a failing provider is retried on the next claim.
type cachedVerifier struct {
	Verifier
	cache cache.Cache
	ttl   time.Duration
}

// WithCache wraps v so identical statements reuse an earlier response.
// A nil cache returns v unchanged.
func WithCache(v Verifier, c cache.Cache, ttl time.Duration) Verifier {
	if c == nil {
		return v
	}
	return &cachedVerifier{Verifier: v, cache: c, ttl: ttl}
}

// CheckFact returns the cached response when present, otherwise asks the provider
func (c *cachedVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	key := cache.CacheKey(c.Name(), strings.TrimSpace(statement))

	if data, found := c.cache.Get(key); found {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		_ = c.cache.Delete(key)
	}

	resp, err := c.Verifier.CheckFact(ctx, statement)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = c.cache.Set(key, data, c.ttl)
	}

	return resp, nil
}
