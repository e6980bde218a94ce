package engine

import (
	"context"
	"errors"
	"fmt"

	"MotoTrader/internal/ledger"
	"MotoTrader/internal/metrics"
	"MotoTrader/internal/model"
	"MotoTrader/internal/recorder"
)

// OrderResult is a filled manual order.
type OrderResult struct {
	Side      model.Side
	Symbol    string
	Quantity  int64
	Price     float64
	Portfolio model.Portfolio
}

// PlaceOrder fills a manual order at the symbol's last close. Rejections
// wrap ledger.ErrInsufficientFunds, ledger.ErrInsufficientShares or the
// invalid input errors; a save failure is a *ledger.PersistError.
func (e *Engine) PlaceOrder(ctx context.Context, side model.Side, symbol string, qty int64) (*OrderResult, error) {
	if qty <= 0 {
		return nil, ledger.ErrInvalidQuantity
	}
	if side != model.SideBuy && side != model.SideSell {
		return nil, fmt.Errorf("unknown side %q", side)
	}

	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	res := e.deps.Collector.CollectPeriod(ctx, symbol, pricingPeriod, 1)
	if !res.OK() {
		return nil, res.Err
	}
	price := res.LastClose()

	var (
		p   model.Portfolio
		err error
	)
	if side == model.SideBuy {
		p, err = e.deps.Ledger.Buy(ctx, symbol, qty, price)
	} else {
		p, err = e.deps.Ledger.Sell(ctx, symbol, qty, price)
	}
	if err != nil {
		var perr *ledger.PersistError
		if errors.As(err, &perr) {
			metrics.PersistFailuresTotal.Inc()
		} else {
			metrics.OrderRejectionsTotal.WithLabelValues(symbol, rejectionReason(err)).Inc()
		}
		e.log.Warn().Err(err).Str("symbol", symbol).Str("side", string(side)).Int64("qty", qty).Msg("manual order rejected")
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(symbol, string(side), "manual").Inc()
	if err := e.deps.Recorder.RecordTrade(&recorder.TradeEvent{
		Time: e.now().UTC(), Symbol: symbol, Side: side, Quantity: qty, Price: price, Source: "manual",
	}); err != nil {
		e.log.Warn().Err(err).Msg("failed to record trade")
	}
	e.log.Info().Str("symbol", symbol).Str("side", string(side)).Int64("qty", qty).Float64("price", price).Msg("manual order filled")

	return &OrderResult{Side: side, Symbol: symbol, Quantity: qty, Price: price, Portfolio: p}, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ledger.ErrInvalidPrice):
		return "invalid_price"
	}
	return "other"
}

// Status is the portfolio valued at the latest known prices.
type Status struct {
	Portfolio   model.Portfolio    `json:"portfolio"`
	Prices      map[string]float64 `json:"prices"`
	MarketValue float64            `json:"market_value"`
	Equity      float64            `json:"equity"`
}

// Status loads the portfolio and values it with the last cycle's prices.
// Positions the last cycle did not price are left out of market value.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	p, err := e.deps.Ledger.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64)
	e.latestMu.RLock()
	for sym, px := range e.latestPrices {
		prices[sym] = px
	}
	e.latestMu.RUnlock()
	mv := ledger.MarketValue(p, prices)
	return &Status{Portfolio: p, Prices: prices, MarketValue: mv, Equity: p.CashFloat() + mv}, nil
}
