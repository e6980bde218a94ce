package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"MotoTrader/internal/model"
)

// GuardedFetcher rate-limits calls to the wrapped fetcher and stops calling
// it for a while after repeated failures.
type GuardedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// GuardOptions tunes the limiter and breaker.
type GuardOptions struct {
	RequestsPerSecond float64
	Burst             int
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func NewGuardedFetcher(inner Fetcher, opts GuardOptions, log zerolog.Logger) *GuardedFetcher {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 60 * time.Second
	}

	st := gobreaker.Settings{
		Name:     inner.Name(),
		Interval: 60 * time.Second,
		Timeout:  opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("fetcher", name).Str("from", from.String()).Str("to", to.String()).
				Msg("data source breaker state changed")
		},
	}
	return &GuardedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

func (g *GuardedFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.PriceBar, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchBars(ctx, symbol, period, interval)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.PriceBar), nil
}

// State exposes the breaker state for diagnostics.
func (g *GuardedFetcher) State() gobreaker.State { return g.breaker.State() }
