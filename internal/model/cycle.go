package model

import "time"

// ActionKind describes what a reconciliation did.
type ActionKind string

const (
	ActionNone    ActionKind = "none"
	ActionBuy     ActionKind = "buy"
	ActionSell    ActionKind = "sell"
	ActionSkipped ActionKind = "skipped"
)

// ReconcileAction is the outcome of aligning a position to its target.
type ReconcileAction struct {
	Kind        ActionKind `json:"kind"`
	DeltaShares int64      `json:"delta_shares"`
	Quantity    int64      `json:"quantity"`
	Price       float64    `json:"price"`
	Note        string     `json:"note,omitempty"`
}

// CycleReport is everything a presentation layer needs for one symbol.
type CycleReport struct {
	Symbol         string           `json:"symbol"`
	Signals        FactorSignals    `json:"signals"`
	Weights        WeightVector     `json:"weights"`
	CombinedScore  float64          `json:"combined_score"`
	TargetExposure float64          `json:"target_exposure"`
	LastPrice      float64          `json:"last_price"`
	Position       Position         `json:"position"`
	CurrentWeight  float64          `json:"current_weight"`
	Action         *ReconcileAction `json:"action,omitempty"`
	Skipped        string           `json:"skipped,omitempty"`
}

// CycleSummary aggregates one decision cycle.
type CycleSummary struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Reports     []CycleReport `json:"reports"`
	Cash        float64       `json:"cash"`
	MarketValue float64       `json:"market_value"`
	Equity      float64       `json:"equity"`
	Weights     WeightVector  `json:"weights"`
}

// PendingAttribution remembers what each factor said for a symbol so the
// next cycle can score it against the realized price move.
type PendingAttribution struct {
	Time          time.Time     `json:"time"`
	Price         float64       `json:"price"`
	Contributions Contributions `json:"contributions"`
}

// AttributionState is the persisted state of the adaptive weighter.
type AttributionState struct {
	Weights   WeightVector                  `json:"weights"`
	History   map[FactorKey][]float64       `json:"history"`
	Pending   map[string]PendingAttribution `json:"pending"`
	UpdatedAt time.Time                     `json:"updated_at"`
}
