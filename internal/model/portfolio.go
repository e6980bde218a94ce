package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Cash is written as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultStartingCash is the balance of a portfolio with no stored state.
const DefaultStartingCash = 100000.0

// Side is the direction of a ledger entry.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ReasonAuto tags entries created by auto-reconciliation.
const ReasonAuto = "auto"

// Position is the holding of a single symbol. AverageCost is only
// meaningful while Quantity > 0.
type Position struct {
	Quantity    int64   `json:"quantity"`
	AverageCost float64 `json:"averageCost"`
}

// LedgerEntry is an immutable trade record.
type LedgerEntry struct {
	Time     time.Time `json:"time"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Quantity int64     `json:"quantity"`
	Price    float64   `json:"price"`
	Reason   string    `json:"reason,omitempty"`
}

// Portfolio is the ledger state: cash, positions and the append-only history.
// Cash is exact so a fill and its reverse cancel out.
type Portfolio struct {
	Cash      decimal.Decimal     `json:"cash"`
	Positions map[string]Position `json:"positions"`
	History   []LedgerEntry       `json:"history"`
}

// NewPortfolio returns an empty portfolio holding only cash.
func NewPortfolio(cash float64) Portfolio {
	return Portfolio{
		Cash:      decimal.NewFromFloat(cash),
		Positions: make(map[string]Position),
		History:   []LedgerEntry{},
	}
}

// DefaultPortfolio is used when no durable record exists.
func DefaultPortfolio() Portfolio { return NewPortfolio(DefaultStartingCash) }

// CashFloat is Cash for valuation and display.
func (p Portfolio) CashFloat() float64 { return p.Cash.InexactFloat64() }

// Clone returns a deep copy so commands never alias the caller's state.
func (p Portfolio) Clone() Portfolio {
	out := Portfolio{
		Cash:      p.Cash,
		Positions: make(map[string]Position, len(p.Positions)),
		History:   make([]LedgerEntry, len(p.History)),
	}
	for sym, pos := range p.Positions {
		out.Positions[sym] = pos
	}
	copy(out.History, p.History)
	return out
}

// Position returns the holding for symbol, zero if none.
func (p Portfolio) Position(symbol string) Position {
	return p.Positions[symbol]
}
