package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MotoTrader/internal/calculator"
	"MotoTrader/internal/collector"
	"MotoTrader/internal/ledger"
	"MotoTrader/internal/metrics"
	"MotoTrader/internal/model"
	"MotoTrader/internal/recorder"
	"MotoTrader/internal/strategy"
)

// pricingPeriod is the short lookback used to price symbols that are held
// but not analysed, and to fill manual orders.
const pricingPeriod = "1mo"

// AttributionStore persists the adaptive weighter between cycles.
type AttributionStore interface {
	Load() (model.AttributionState, error)
	Save(model.AttributionState) error
}

// Settings are the strategy knobs of a cycle.
type Settings struct {
	Watchlist     []string
	Indicators    calculator.Params
	StaticWeights model.WeightVector
	UseAdaptive   bool
	RiskCap       float64
	AutoReconcile bool
	MacroEnabled  bool
}

// Deps are the collaborators an Engine drives.
type Deps struct {
	Collector    *collector.Collector
	Ledger       *ledger.Manager
	Weighter     *strategy.AdaptiveWeighter
	Attribution  AttributionStore
	Fundamentals strategy.FundamentalSource
	Recorder     recorder.Recorder
	Log          zerolog.Logger
}

// Engine runs decision cycles: indicators, signals, fusion, then the ledger.
type Engine struct {
	settings Settings
	deps     Deps
	log      zerolog.Logger
	now      func() time.Time

	// cycleMu keeps one cycle or manual order in flight at a time.
	cycleMu sync.Mutex

	latestMu     sync.RWMutex
	latest       *model.CycleSummary
	latestPrices map[string]float64
}

func New(settings Settings, deps Deps) (*Engine, error) {
	if deps.Collector == nil || deps.Ledger == nil || deps.Weighter == nil {
		return nil, errors.New("engine needs a collector, a ledger and a weighter")
	}
	if len(settings.Watchlist) == 0 {
		return nil, errors.New("engine needs a non-empty watchlist")
	}
	if deps.Fundamentals == nil {
		deps.Fundamentals = strategy.NeutralFundamentals{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if len(settings.StaticWeights) == 0 {
		settings.StaticWeights = model.UniformWeights()
	}
	settings.StaticWeights = settings.StaticWeights.Normalize()
	settings.Indicators = settings.Indicators.WithDefaults()

	e := &Engine{settings: settings, deps: deps, log: deps.Log, now: time.Now}
	if deps.Attribution != nil {
		state, err := deps.Attribution.Load()
		if err != nil {
			return nil, fmt.Errorf("load attribution: %w", err)
		}
		deps.Weighter.Restore(state.Weights, state.History)
	}
	return e, nil
}

// RunCycle evaluates every watchlist symbol once. Symbols without data are
// reported as skipped; a portfolio save failure aborts the cycle.
func (e *Engine) RunCycle(ctx context.Context) (*model.CycleSummary, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	started := e.now().UTC()
	summary := &model.CycleSummary{ID: uuid.NewString(), StartedAt: started}
	log := e.log.With().Str("cycle", summary.ID).Logger()
	log.Info().Strs("watchlist", e.settings.Watchlist).Msg("cycle started")

	attribution := e.loadAttribution(log)

	portfolio, err := e.deps.Ledger.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	var macro collector.Macro
	if e.settings.MacroEnabled {
		macro = e.deps.Collector.CollectMacro(ctx)
	}

	results := make(map[string]collector.Result, len(e.settings.Watchlist))
	prices := make(map[string]float64)
	for _, sym := range e.settings.Watchlist {
		res := e.deps.Collector.Collect(ctx, sym)
		results[sym] = res
		if res.OK() {
			prices[sym] = res.LastClose()
		}
	}
	e.priceHoldings(ctx, portfolio, prices)

	e.feedBack(attribution, prices, log)

	weights := e.settings.StaticWeights.Clone()
	if e.settings.UseAdaptive {
		weights = e.deps.Weighter.Weights()
	}
	equity := ledger.Equity(portfolio, prices)

	for _, sym := range e.settings.Watchlist {
		res := results[sym]
		report := model.CycleReport{Symbol: sym, Weights: weights, LastPrice: prices[sym]}
		report.Position = portfolio.Position(sym)

		if !res.OK() {
			report.Skipped = res.Err.Error()
			metrics.DataUnavailableTotal.WithLabelValues(sym).Inc()
			summary.Reports = append(summary.Reports, report)
			continue
		}

		report.Signals = e.signals(ctx, res, macro)
		report.CombinedScore = strategy.CombineSignals(report.Signals, weights)
		report.TargetExposure = strategy.TargetExposure(report.CombinedScore, e.settings.RiskCap)
		report.CurrentWeight = ledger.CurrentWeight(portfolio, sym, report.LastPrice, equity)
		metrics.TargetExposure.WithLabelValues(sym).Set(report.TargetExposure)

		if e.settings.AutoReconcile {
			next, action, err := e.deps.Ledger.AutoReconcile(ctx, sym, report.TargetExposure, equity, report.LastPrice)
			if err != nil {
				var perr *ledger.PersistError
				if errors.As(err, &perr) {
					metrics.PersistFailuresTotal.Inc()
				}
				log.Error().Err(err).Str("symbol", sym).Msg("cycle aborted")
				return nil, fmt.Errorf("reconcile %s: %w", sym, err)
			}
			portfolio = next
			report.Action = &action
			e.afterReconcile(summary.ID, sym, action, started, log)
		}

		attribution.Pending[sym] = model.PendingAttribution{
			Time:          started,
			Price:         report.LastPrice,
			Contributions: report.Signals.Contributions(),
		}

		log.Debug().
			Str("symbol", sym).
			Int("tech", int(report.Signals.Tech)).
			Int("macro", int(report.Signals.Macro)).
			Int("fund", int(report.Signals.Fund)).
			Float64("score", report.CombinedScore).
			Float64("target", report.TargetExposure).
			Msg("symbol evaluated")
		summary.Reports = append(summary.Reports, report)
	}

	summary.Cash = portfolio.CashFloat()
	summary.MarketValue = ledger.MarketValue(portfolio, prices)
	summary.Equity = summary.Cash + summary.MarketValue
	summary.Weights = weights

	e.saveAttribution(attribution, log)
	if err := e.deps.Recorder.RecordCycle(summary); err != nil {
		log.Warn().Err(err).Msg("failed to record cycle")
	}

	metrics.CyclesTotal.Inc()
	metrics.PortfolioEquity.Set(summary.Equity)
	for _, k := range model.Factors {
		metrics.FactorWeight.WithLabelValues(string(k)).Set(weights[k])
	}

	e.latestMu.Lock()
	e.latest = summary
	e.latestPrices = prices
	e.latestMu.Unlock()

	log.Info().
		Float64("equity", summary.Equity).
		Float64("cash", summary.Cash).
		Int("symbols", len(summary.Reports)).
		Msg("cycle finished")
	return summary, nil
}

func (e *Engine) signals(ctx context.Context, res collector.Result, macro collector.Macro) model.FactorSignals {
	s := model.FactorSignals{
		Tech: strategy.LatestTechnicalSignal(res.Bars, e.settings.Indicators),
		Fund: e.deps.Fundamentals.FundamentalSignal(ctx, res.Symbol),
	}
	if e.settings.MacroEnabled && macro.VIX.OK() {
		s.Macro = strategy.MacroSignal(res.Bars, macro.VIX.Bars, macro.DXY.Bars, e.deps.Collector.Interval())
	}
	return s
}

// priceHoldings fills prices for held symbols the watchlist did not price.
func (e *Engine) priceHoldings(ctx context.Context, p model.Portfolio, prices map[string]float64) {
	for sym, pos := range p.Positions {
		if pos.Quantity == 0 {
			continue
		}
		if _, ok := prices[sym]; ok {
			continue
		}
		if res := e.deps.Collector.CollectPeriod(ctx, sym, pricingPeriod, 1); res.OK() {
			prices[sym] = res.LastClose()
		}
	}
}

// feedBack scores last cycle's calls against the move since then, one long
// unit per symbol. Pending entries without a current price are kept.
func (e *Engine) feedBack(state model.AttributionState, prices map[string]float64, log zerolog.Logger) {
	symbols := make([]string, 0, len(state.Pending))
	for sym := range state.Pending {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		now, ok := prices[sym]
		if !ok {
			continue
		}
		pending := state.Pending[sym]
		pnl := now - pending.Price
		e.deps.Weighter.Update(pnl, pending.Contributions)
		delete(state.Pending, sym)
		log.Debug().Str("symbol", sym).Float64("pnl", pnl).Msg("attribution updated")
	}
}

func (e *Engine) afterReconcile(cycleID, sym string, action model.ReconcileAction, at time.Time, log zerolog.Logger) {
	switch action.Kind {
	case model.ActionBuy, model.ActionSell:
		side := model.SideBuy
		if action.Kind == model.ActionSell {
			side = model.SideSell
		}
		metrics.OrdersTotal.WithLabelValues(sym, string(side), model.ReasonAuto).Inc()
		if err := e.deps.Recorder.RecordTrade(&recorder.TradeEvent{
			Time: at, Symbol: sym, Side: side, Quantity: action.Quantity,
			Price: action.Price, Source: model.ReasonAuto, CycleID: cycleID,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record trade")
		}
		log.Info().Str("symbol", sym).Str("side", string(side)).Int64("qty", action.Quantity).
			Float64("price", action.Price).Msg("auto reconcile filled")
	case model.ActionSkipped:
		metrics.OrderRejectionsTotal.WithLabelValues(sym, "unaffordable").Inc()
		log.Warn().Str("symbol", sym).Int64("delta", action.DeltaShares).Str("note", action.Note).
			Msg("auto reconcile skipped")
	}
}

func (e *Engine) loadAttribution(log zerolog.Logger) model.AttributionState {
	state := model.AttributionState{Pending: make(map[string]model.PendingAttribution)}
	if e.deps.Attribution == nil {
		return state
	}
	loaded, err := e.deps.Attribution.Load()
	if err != nil {
		log.Warn().Err(err).Msg("attribution state unreadable, starting fresh")
		return state
	}
	if loaded.Pending == nil {
		loaded.Pending = make(map[string]model.PendingAttribution)
	}
	// Another process may have run a cycle since we last saved.
	e.deps.Weighter.Restore(loaded.Weights, loaded.History)
	return loaded
}

func (e *Engine) saveAttribution(state model.AttributionState, log zerolog.Logger) {
	state.Weights, state.History = e.deps.Weighter.Snapshot()
	if e.deps.Attribution == nil {
		return
	}
	if err := e.deps.Attribution.Save(state); err != nil {
		log.Error().Err(err).Msg("failed to save attribution state")
	}
}

// Latest returns the most recent cycle summary, nil before the first cycle.
func (e *Engine) Latest() *model.CycleSummary {
	e.latestMu.RLock()
	defer e.latestMu.RUnlock()
	return e.latest
}

// Weights returns the adaptive weights and whether they drive sizing.
func (e *Engine) Weights() (model.WeightVector, bool) {
	if e.settings.UseAdaptive {
		return e.deps.Weighter.Weights(), true
	}
	return e.settings.StaticWeights.Clone(), false
}

// AdaptiveWeights returns the learned weights regardless of mode.
func (e *Engine) AdaptiveWeights() model.WeightVector {
	return e.deps.Weighter.Weights()
}
