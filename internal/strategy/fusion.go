package strategy

import (
	"math"

	"MotoTrader/internal/model"
)

// exposureGain scales the combined score before tanh squashing.
const exposureGain = 1.5

// maxTanh keeps the squashed score strictly inside (-1, 1) where float64
// tanh would otherwise round to exactly ±1.
var maxTanh = math.Nextafter(1, 0)

// CombineSignals returns the weighted sum of the three factor signals.
func CombineSignals(s model.FactorSignals, w model.WeightVector) float64 {
	return w[model.FactorTech]*float64(s.Tech) +
		w[model.FactorMacro]*float64(s.Macro) +
		w[model.FactorFund]*float64(s.Fund)
}

// TargetExposure maps a combined score to a signed fraction of equity,
// strictly bounded by riskCap in magnitude.
func TargetExposure(combinedScore, riskCap float64) float64 {
	if riskCap <= 0 || math.IsNaN(combinedScore) || math.IsNaN(riskCap) {
		return 0
	}
	t := math.Tanh(exposureGain * combinedScore)
	if t > maxTanh {
		t = maxTanh
	} else if t < -maxTanh {
		t = -maxTanh
	}
	return t * riskCap
}
