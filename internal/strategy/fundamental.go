package strategy

import (
	"context"

	"MotoTrader/internal/model"
)

// FundamentalSource supplies the fundamental factor's signal for a symbol.
type FundamentalSource interface {
	FundamentalSignal(ctx context.Context, symbol string) model.Signal
}

// NeutralFundamentals is the placeholder source: earnings and news feeds are
// not wired, so every symbol reads neutral.
type NeutralFundamentals struct{}

func (NeutralFundamentals) FundamentalSignal(context.Context, string) model.Signal {
	return model.Neutral
}
