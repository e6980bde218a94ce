package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"MotoTrader/internal/model"
)

// Buy debits qty*price from cash and adds to the position at a blended
// average cost. The input portfolio is never modified.
func Buy(p model.Portfolio, symbol string, qty int64, price float64, at time.Time, reason string) (model.Portfolio, error) {
	if qty <= 0 {
		return p, ErrInvalidQuantity
	}
	if !validPrice(price) {
		return p, ErrInvalidPrice
	}
	cost := notional(qty, price)
	if p.Cash.LessThan(cost) {
		return p, fmt.Errorf("buy %d %s @ %.2f needs %s, have %s: %w",
			qty, symbol, price, cost.StringFixed(2), p.Cash.StringFixed(2), ErrInsufficientFunds)
	}

	next := p.Clone()
	pos := next.Positions[symbol]
	newQty := pos.Quantity + qty
	pos.AverageCost = (pos.AverageCost*float64(pos.Quantity) + cost.InexactFloat64()) / float64(max(1, newQty))
	pos.Quantity = newQty
	next.Positions[symbol] = pos
	next.Cash = p.Cash.Sub(cost)
	next.History = append(next.History, model.LedgerEntry{
		Time:     at.UTC(),
		Symbol:   symbol,
		Side:     model.SideBuy,
		Quantity: qty,
		Price:    price,
		Reason:   reason,
	})
	return next, nil
}

// Sell credits qty*price to cash. Average cost is left as is.
func Sell(p model.Portfolio, symbol string, qty int64, price float64, at time.Time, reason string) (model.Portfolio, error) {
	if qty <= 0 {
		return p, ErrInvalidQuantity
	}
	if !validPrice(price) {
		return p, ErrInvalidPrice
	}
	pos := p.Positions[symbol]
	if pos.Quantity < qty {
		return p, fmt.Errorf("sell %d %s, holding %d: %w", qty, symbol, pos.Quantity, ErrInsufficientShares)
	}

	next := p.Clone()
	pos.Quantity -= qty
	next.Positions[symbol] = pos
	next.Cash = p.Cash.Add(notional(qty, price))
	next.History = append(next.History, model.LedgerEntry{
		Time:     at.UTC(),
		Symbol:   symbol,
		Side:     model.SideSell,
		Quantity: qty,
		Price:    price,
		Reason:   reason,
	})
	return next, nil
}

// AutoReconcile trades symbol toward targetExposure*equity of value.
// It never fails: an unaffordable buy is reported as skipped, a sell is
// capped at the held quantity, and degenerate inputs do nothing.
func AutoReconcile(p model.Portfolio, symbol string, targetExposure, equity, price float64, at time.Time) (model.Portfolio, model.ReconcileAction) {
	action := model.ReconcileAction{Kind: model.ActionNone, Price: price}
	if !validPrice(price) || !finite(targetExposure) || !finite(equity) {
		action.Note = "invalid inputs"
		return p, action
	}

	pos := p.Positions[symbol]
	desired := targetExposure * equity
	delta := desired - float64(pos.Quantity)*price
	shares := truncShares(delta / price)
	action.DeltaShares = shares

	switch {
	case shares > 0:
		next, err := Buy(p, symbol, shares, price, at, model.ReasonAuto)
		if err != nil {
			action.Kind = model.ActionSkipped
			action.Note = err.Error()
			return p, action
		}
		action.Kind = model.ActionBuy
		action.Quantity = shares
		return next, action

	case shares < 0:
		qty := min(pos.Quantity, -shares)
		if qty <= 0 {
			action.Note = "nothing to sell"
			return p, action
		}
		next, err := Sell(p, symbol, qty, price, at, model.ReasonAuto)
		if err != nil {
			action.Kind = model.ActionSkipped
			action.Note = err.Error()
			return p, action
		}
		action.Kind = model.ActionSell
		action.Quantity = qty
		return next, action
	}
	return p, action
}

// truncShares truncates toward zero, saturating at ±MaxInt64.
func truncShares(v float64) int64 {
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= -math.MaxInt64:
		return -math.MaxInt64
	}
	return int64(v)
}

func validPrice(price float64) bool {
	return price > 0 && finite(price)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// notional is the exact value of qty shares at price.
func notional(qty int64, price float64) decimal.Decimal {
	return decimal.NewFromInt(qty).Mul(decimal.NewFromFloat(price))
}
