package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MotoTrader/internal/model"
)

// BarCache is the key/value store CachedFetcher needs.
type BarCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// CachedFetcher serves repeated requests for the same series from a cache.
// Cache errors are logged and fall through to the wrapped fetcher.
type CachedFetcher struct {
	inner Fetcher
	cache BarCache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedFetcher(inner Fetcher, cache BarCache, ttl time.Duration, log zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: cache, ttl: ttl, log: log}
}

func (c *CachedFetcher) Name() string { return c.inner.Name() }

func (c *CachedFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.PriceBar, error) {
	key := fmt.Sprintf("bars:%s:%s:%s:%s", c.inner.Name(), symbol, period, interval)

	var bars []model.PriceBar
	hit, err := c.cache.GetJSON(ctx, key, &bars)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("bar cache read failed")
	} else if hit && len(bars) > 0 {
		return bars, nil
	}

	bars, err = c.inner.FetchBars(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.cache.SetJSON(ctx, key, bars, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("bar cache write failed")
		}
	}
	return bars, nil
}
