package calculator

import (
	"MotoTrader/internal/model"
)

// rsiEpsilon replaces a zero average loss so a window of pure gains reads
// close to 100 instead of dividing by zero.
const rsiEpsilon = 1e-10

// CalculateRSI computes RSI from the simple rolling mean of gains and losses
// over `length` price changes (not Wilder smoothing). The first `length`
// values are undefined.
func CalculateRSI(closes []float64, length int) model.Series {
	n := len(closes)
	out := model.NewUndefinedSeries(n)
	if length <= 0 || n <= length {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := length; i < n; i++ {
		var sumGain, sumLoss float64
		for j := i - length + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		avgGain := sumGain / float64(length)
		avgLoss := sumLoss / float64(length)
		if avgLoss == 0 {
			avgLoss = rsiEpsilon
		}
		rsi := 100.0 - 100.0/(1.0+avgGain/avgLoss)
		switch {
		case model.Undefined(rsi):
			continue
		case rsi < 0:
			rsi = 0
		case rsi > 100:
			rsi = 100
		}
		out[i] = rsi
	}
	return out
}
