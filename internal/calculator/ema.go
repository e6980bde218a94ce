package calculator

import (
	"MotoTrader/internal/model"
)

// CalculateEMA computes the recursive exponential moving average with
// smoothing factor 2/(span+1). The first defined input seeds the average;
// there is no separate SMA warm-up.
func CalculateEMA(values []float64, span int) model.Series {
	out := model.NewUndefinedSeries(len(values))
	if span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)

	seeded := false
	var ema float64
	for i, v := range values {
		if model.Undefined(v) {
			if seeded {
				out[i] = ema
			}
			continue
		}
		if !seeded {
			ema = v
			seeded = true
		} else {
			ema = alpha*v + (1-alpha)*ema
		}
		out[i] = ema
	}
	return out
}

// Closes extracts close prices from bars.
func Closes(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts high prices from bars.
func Highs(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts low prices from bars.
func Lows(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}
