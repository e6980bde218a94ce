package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"MotoTrader/internal/model"
)

// ErrDataUnavailable marks a series that cannot feed the indicators: the
// fetch failed, came back empty, or is too short.
var ErrDataUnavailable = errors.New("data unavailable")

// DefaultMinBars is the shortest series the indicators are computed on.
const DefaultMinBars = 60

// Result is the outcome of collecting one symbol. Exactly one of Bars and
// Err is meaningful.
type Result struct {
	Symbol string
	Bars   []model.PriceBar
	Err    error
}

// OK reports whether the bars are usable.
func (r Result) OK() bool { return r.Err == nil }

// LastClose returns the close of the most recent bar, 0 if there is none.
func (r Result) LastClose() float64 {
	if len(r.Bars) == 0 {
		return 0
	}
	return r.Bars[len(r.Bars)-1].Close
}

// Macro holds the proxy series for the macro factor. Each may be unavailable
// independently.
type Macro struct {
	VIX Result
	DXY Result
}

// Options configures a Collector.
type Options struct {
	Period    string
	Interval  string
	MinBars   int
	VIXSymbol string
	DXYSymbol string
}

// Collector turns fetcher output into Results the engine can rely on.
type Collector struct {
	fetcher Fetcher
	opts    Options
	log     zerolog.Logger
}

func NewCollector(fetcher Fetcher, opts Options, log zerolog.Logger) *Collector {
	if opts.Period == "" {
		opts.Period = "6mo"
	}
	if opts.Interval == "" {
		opts.Interval = "1d"
	}
	if opts.MinBars <= 0 {
		opts.MinBars = DefaultMinBars
	}
	if opts.VIXSymbol == "" {
		opts.VIXSymbol = "^VIX"
	}
	if opts.DXYSymbol == "" {
		opts.DXYSymbol = "DX-Y.NYB"
	}
	return &Collector{fetcher: fetcher, opts: opts, log: log}
}

// Interval is the bar size used for every fetch.
func (c *Collector) Interval() string { return c.opts.Interval }

// Collect fetches the configured lookback for symbol.
func (c *Collector) Collect(ctx context.Context, symbol string) Result {
	return c.CollectPeriod(ctx, symbol, c.opts.Period, c.opts.MinBars)
}

// CollectPeriod fetches symbol over period and requires at least minBars bars.
// It never panics; every failure is reported as ErrDataUnavailable.
func (c *Collector) CollectPeriod(ctx context.Context, symbol, period string, minBars int) (res Result) {
	res.Symbol = symbol
	if minBars < 1 {
		minBars = 1
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Symbol: symbol, Err: fmt.Errorf("%w: %s: fetcher panic: %v", ErrDataUnavailable, symbol, r)}
		}
		if res.Err != nil {
			c.log.Warn().Err(res.Err).Str("symbol", symbol).Msg("data unavailable")
		}
	}()

	bars, err := c.fetcher.FetchBars(ctx, symbol, period, c.opts.Interval)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrDataUnavailable, symbol, err)
		return res
	}
	bars = model.SortBars(bars)
	if len(bars) < minBars {
		res.Err = fmt.Errorf("%w: %s: %d bars, need %d", ErrDataUnavailable, symbol, len(bars), minBars)
		return res
	}

	c.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Str("source", c.fetcher.Name()).Msg("bars collected")
	res.Bars = bars
	return res
}

// CollectMacro fetches the VIX and dollar index proxies.
func (c *Collector) CollectMacro(ctx context.Context) Macro {
	return Macro{
		VIX: c.CollectPeriod(ctx, c.opts.VIXSymbol, c.opts.Period, 1),
		DXY: c.CollectPeriod(ctx, c.opts.DXYSymbol, c.opts.Period, 1),
	}
}
