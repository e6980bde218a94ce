package recorder

import (
	"time"

	"MotoTrader/internal/model"
)

// TradeEvent is one filled order.
type TradeEvent struct {
	Time     time.Time
	Symbol   string
	Side     model.Side
	Quantity int64
	Price    float64
	Source   string // "manual" or "auto"
	CycleID  string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordCycle(summary *model.CycleSummary) error
	RecordTrade(evt *TradeEvent) error
	Close() error
}
