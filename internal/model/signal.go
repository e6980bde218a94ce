package model

import "math"

// Signal is a discrete directional call.
type Signal int

const (
	Bearish Signal = -1
	Neutral Signal = 0
	Bullish Signal = 1
)

// FactorKey identifies one of the fused signal sources.
type FactorKey string

const (
	FactorTech  FactorKey = "tech"
	FactorMacro FactorKey = "macro"
	FactorFund  FactorKey = "fund"
)

// Factors lists every factor in a fixed order so sums are deterministic.
var Factors = []FactorKey{FactorTech, FactorMacro, FactorFund}

// Contributions maps a factor to its signed contribution for a cycle.
type Contributions map[FactorKey]float64

// FactorSignals holds the three signals of one decision cycle.
type FactorSignals struct {
	Tech  Signal `json:"tech"`
	Macro Signal `json:"macro"`
	Fund  Signal `json:"fund"`
}

// Contributions converts the signals into a contribution map.
func (f FactorSignals) Contributions() Contributions {
	return Contributions{
		FactorTech:  float64(f.Tech),
		FactorMacro: float64(f.Macro),
		FactorFund:  float64(f.Fund),
	}
}

// WeightVector maps each factor to a non-negative weight.
type WeightVector map[FactorKey]float64

// UniformWeights returns 1/3 for each factor.
func UniformWeights() WeightVector {
	w := make(WeightVector, len(Factors))
	for _, k := range Factors {
		w[k] = 1.0 / float64(len(Factors))
	}
	return w
}

// Sum adds the weights in factor order.
func (w WeightVector) Sum() float64 {
	var s float64
	for _, k := range Factors {
		s += w[k]
	}
	return s
}

// Clone returns an independent copy.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Normalize rescales onto the simplex. A vector with no positive mass
// becomes uniform.
func (w WeightVector) Normalize() WeightVector {
	out := make(WeightVector, len(Factors))
	for _, k := range Factors {
		out[k] = math.Max(0, w[k])
	}
	s := out.Sum()
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return UniformWeights()
	}
	for _, k := range Factors {
		out[k] /= s
	}
	return out
}
