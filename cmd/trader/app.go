package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"MotoTrader/internal/cache"
	"MotoTrader/internal/collector"
	"MotoTrader/internal/config"
	"MotoTrader/internal/engine"
	"MotoTrader/internal/ledger"
	"MotoTrader/internal/logger"
	"MotoTrader/internal/notifier"
	"MotoTrader/internal/recorder"
	"MotoTrader/internal/store"
	"MotoTrader/internal/strategy"
)

// app holds the wired components and everything that needs closing.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	engine   *engine.Engine
	notifier *notifier.TelegramNotifier
	closers  []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

// newApp loads the config and wires the engine with its collaborators.
func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat).With().Str("app", cfg.App.Name).Logger()
	a := &app{cfg: cfg, log: log}

	fetcher, err := a.newFetcher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	col := collector.NewCollector(fetcher, collector.Options{
		Period:    cfg.DataSource.Period,
		Interval:  cfg.DataSource.Interval,
		MinBars:   cfg.Risk.MinBars,
		VIXSymbol: cfg.Macro.VIXSymbol,
		DXYSymbol: cfg.Macro.DXYSymbol,
	}, log)

	st, err := a.newStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	weighter, err := strategy.NewAdaptiveWeighter(cfg.Adaptive.Alpha)
	if err != nil {
		a.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Settings{
		Watchlist:     cfg.Watchlist,
		Indicators:    cfg.Indicators,
		StaticWeights: cfg.StaticWeights(),
		UseAdaptive:   cfg.Weights.UseAdaptive,
		RiskCap:       cfg.Risk.RiskCap,
		AutoReconcile: cfg.Risk.AutoReconcile,
		MacroEnabled:  cfg.Macro.Enabled,
	}, engine.Deps{
		Collector:   col,
		Ledger:      ledger.NewManager(st, log),
		Weighter:    weighter,
		Attribution: store.NewAttributionFile(cfg.Adaptive.StateFile),
		Recorder:    a.newRecorder(),
		Log:         log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init engine: %w", err)
	}
	a.engine = eng
	a.notifier = notifier.NewTelegramNotifier(notifier.DefaultTelegramBaseURL,
		cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	return a, nil
}

// newFetcher picks the provider, then layers rate limiting, the circuit
// breaker and, when enabled, the Redis bar cache on top.
func (a *app) newFetcher(ctx context.Context) (collector.Fetcher, error) {
	ds := a.cfg.DataSource
	var fetcher collector.Fetcher
	switch ds.Provider {
	case config.ProviderFinanceGo:
		fetcher = collector.NewFinanceGoFetcher()
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(ds.BaseURL, a.cfg.Proxy, ds.Timeout)
	}
	a.log.Info().Str("provider", fetcher.Name()).Msg("data source selected")

	fetcher = collector.NewGuardedFetcher(fetcher, collector.GuardOptions{
		RequestsPerSecond: ds.RequestsPerSecond,
		Burst:             ds.Burst,
		FailureThreshold:  ds.BreakerFailures,
		OpenTimeout:       ds.BreakerTimeout,
	}, a.log)

	if !a.cfg.Redis.Enabled {
		return fetcher, nil
	}
	rc, err := cache.New(ctx, cache.Options{
		Enabled:  true,
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		Prefix:   a.cfg.Redis.Prefix,
	})
	if err != nil {
		// The cache is an optimisation; run without it.
		a.log.Warn().Err(err).Msg("redis unavailable, bar cache disabled")
		return fetcher, nil
	}
	a.closers = append(a.closers, rc)
	return collector.NewCachedFetcher(fetcher, rc, a.cfg.Redis.TTL, a.log), nil
}

func (a *app) newStore() (store.Store, error) {
	l := a.cfg.Ledger
	switch l.Backend {
	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(l.SQLitePath, l.Account, l.StartingCash, a.log)
		if err != nil {
			return nil, fmt.Errorf("open ledger database: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.BackendMemory:
		return store.NewMemoryStore(l.StartingCash), nil
	default:
		return store.NewJSONStore(l.StateFile, l.StartingCash), nil
	}
}

func (a *app) newRecorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	r, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	a.closers = append(a.closers, r)
	return r
}
