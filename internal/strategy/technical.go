package strategy

import (
	"MotoTrader/internal/calculator"
	"MotoTrader/internal/model"
)

// TechnicalSignals reduces the indicator set to one signal per bar.
func TechnicalSignals(bars []model.PriceBar, p calculator.Params) []model.Signal {
	set := calculator.Compute(bars, p)
	return SignalsFromIndicators(set, calculator.Closes(bars))
}

// LatestTechnicalSignal returns the signal at the most recent bar.
func LatestTechnicalSignal(bars []model.PriceBar, p calculator.Params) model.Signal {
	if len(bars) == 0 {
		return model.Neutral
	}
	signals := TechnicalSignals(bars, p)
	return signals[len(signals)-1]
}

// SignalsFromIndicators applies the bull/bear alignment rules per bar.
//
// Bullish: EMA short > mid > long, MACD above its signal, positive histogram,
// RSI above 50 and close above span B. Bearish mirrors every inequality.
// Undefined indicators fail their comparison; an undefined span B is replaced
// by the close itself, which fails both sides.
func SignalsFromIndicators(set model.IndicatorSet, closes []float64) []model.Signal {
	out := make([]model.Signal, len(closes))
	for i, c := range closes {
		spanB := set.SpanB[i]
		if model.Undefined(spanB) {
			spanB = c
		}

		bull := set.EMAShort[i] > set.EMAMid[i] &&
			set.EMAMid[i] > set.EMALong[i] &&
			set.MACDLine[i] > set.MACDSignal[i] &&
			set.MACDHistogram[i] > 0 &&
			set.RSI[i] > 50 &&
			c > spanB

		bear := set.EMAShort[i] < set.EMAMid[i] &&
			set.EMAMid[i] < set.EMALong[i] &&
			set.MACDLine[i] < set.MACDSignal[i] &&
			set.MACDHistogram[i] < 0 &&
			set.RSI[i] < 50 &&
			c < spanB

		out[i] = classify(bull, bear)
	}
	return out
}

func classify(bull, bear bool) model.Signal {
	switch {
	case bull && !bear:
		return model.Bullish
	case bear && !bull:
		return model.Bearish
	default:
		return model.Neutral
	}
}
