package ledger

import "MotoTrader/internal/model"

// MarketValue sums quantity*price over positions with a known price.
// Positions without a price contribute nothing.
func MarketValue(p model.Portfolio, prices map[string]float64) float64 {
	var mv float64
	for sym, pos := range p.Positions {
		if px, ok := prices[sym]; ok && validPrice(px) {
			mv += float64(pos.Quantity) * px
		}
	}
	return mv
}

// Equity is cash plus market value.
func Equity(p model.Portfolio, prices map[string]float64) float64 {
	return p.CashFloat() + MarketValue(p, prices)
}

// CurrentWeight is the symbol's share of equity, 0 when equity is not positive.
func CurrentWeight(p model.Portfolio, symbol string, price, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return float64(p.Positions[symbol].Quantity) * price / equity
}
