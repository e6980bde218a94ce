package strategy

import (
	"fmt"
	"math"
	"sync"

	"MotoTrader/internal/model"
)

const (
	// PerformanceWindow is how many recent hit/miss outcomes drive the update.
	PerformanceWindow = 100
	// DefaultAlpha is the default smoothing rate.
	DefaultAlpha = 0.2
)

// AdaptiveWeighter keeps factor weights on the simplex and nudges them toward
// factors whose calls agreed with realized P&L.
type AdaptiveWeighter struct {
	mu      sync.Mutex
	alpha   float64
	weights model.WeightVector
	history map[model.FactorKey][]float64
}

// NewAdaptiveWeighter starts from uniform weights. alpha must be in (0, 1].
func NewAdaptiveWeighter(alpha float64) (*AdaptiveWeighter, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("adaptive alpha must be in (0, 1], got %v", alpha)
	}
	w := &AdaptiveWeighter{
		alpha:   alpha,
		weights: model.UniformWeights(),
		history: make(map[model.FactorKey][]float64, len(model.Factors)),
	}
	return w, nil
}

// Alpha returns the smoothing rate.
func (w *AdaptiveWeighter) Alpha() float64 { return w.alpha }

// Update scores every factor against the realized P&L and renormalizes.
// A factor hits when pnl*contribution >= 0; missing contributions count as 0.
func (w *AdaptiveWeighter) Update(pnl float64, contributions model.Contributions) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(model.WeightVector, len(model.Factors))
	for _, k := range model.Factors {
		c := contributions[k]
		hit := 1.0
		if pnl*c < 0 {
			hit = -1.0
		}

		h := append(w.history[k], hit)
		if len(h) > PerformanceWindow {
			h = append([]float64(nil), h[len(h)-PerformanceWindow:]...)
		}
		w.history[k] = h

		var sum float64
		for _, v := range h {
			sum += v
		}
		perf := sum / math.Max(1, float64(len(h)))

		next[k] = (1-w.alpha)*w.weights[k] + w.alpha*math.Max(0, perf+0.5)
	}
	w.weights = next.Normalize()
}

// Weights returns a copy of the current weight vector.
func (w *AdaptiveWeighter) Weights() model.WeightVector {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.weights.Clone()
}

// History returns a copy of the recent outcomes for a factor.
func (w *AdaptiveWeighter) History(k model.FactorKey) []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]float64(nil), w.history[k]...)
}

// Snapshot exports weights and history for persistence.
func (w *AdaptiveWeighter) Snapshot() (model.WeightVector, map[model.FactorKey][]float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	hist := make(map[model.FactorKey][]float64, len(w.history))
	for k, h := range w.history {
		hist[k] = append([]float64(nil), h...)
	}
	return w.weights.Clone(), hist
}

// Restore loads persisted weights and history. Weights are renormalized and
// histories are trimmed to the performance window.
func (w *AdaptiveWeighter) Restore(weights model.WeightVector, history map[model.FactorKey][]float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(weights) > 0 {
		w.weights = weights.Normalize()
	}
	w.history = make(map[model.FactorKey][]float64, len(model.Factors))
	for _, k := range model.Factors {
		h := history[k]
		if len(h) > PerformanceWindow {
			h = h[len(h)-PerformanceWindow:]
		}
		w.history[k] = append([]float64(nil), h...)
	}
}
