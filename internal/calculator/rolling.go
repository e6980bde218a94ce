package calculator

import (
	"math"

	"MotoTrader/internal/model"
)

// RollingMax returns the maximum over a trailing window. Values are
// undefined until the window is full or when it contains an undefined value.
func RollingMax(values []float64, window int) model.Series {
	return rolling(values, window, math.Max)
}

// RollingMin returns the minimum over a trailing window.
func RollingMin(values []float64, window int) model.Series {
	return rolling(values, window, math.Min)
}

func rolling(values []float64, window int, pick func(a, b float64) float64) model.Series {
	out := model.NewUndefinedSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		acc := values[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			acc = pick(acc, values[j])
		}
		out[i] = acc
	}
	return out
}

// Shift moves values by k positions: positive k associates the value at t
// with t+k, negative k associates it with t-k. Length is preserved; values
// shifted past either end are dropped.
func Shift(values []float64, k int) model.Series {
	n := len(values)
	out := model.NewUndefinedSeries(n)
	for i := 0; i < n; i++ {
		src := i - k
		if src >= 0 && src < n {
			out[i] = values[src]
		}
	}
	return out
}
