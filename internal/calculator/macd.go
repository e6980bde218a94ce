package calculator

import "MotoTrader/internal/model"

// MACD holds the three MACD series.
type MACD struct {
	Line      model.Series
	Signal    model.Series
	Histogram model.Series
}

// CalculateMACD returns EMA(fast)-EMA(slow), its EMA(signal) and the difference.
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	emaFast := CalculateEMA(closes, fast)
	emaSlow := CalculateEMA(closes, slow)

	line := make(model.Series, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := CalculateEMA(line, signal)

	hist := make(model.Series, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return MACD{Line: line, Signal: sig, Histogram: hist}
}
