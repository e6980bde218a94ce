package collector

import (
	"context"
	"fmt"

	"MotoTrader/internal/model"
)

// Fetcher retrieves OHLCV bars for a symbol over a lookback period.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, period, interval string) ([]model.PriceBar, error)
	Name() string
}

// AllowedPeriods and AllowedIntervals are the lookbacks and bar sizes the
// collectors accept.
var (
	AllowedPeriods   = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"}
	AllowedIntervals = []string{"1d", "1h", "30m", "15m"}
)

// ValidatePeriod rejects lookbacks outside AllowedPeriods.
func ValidatePeriod(period string) error {
	for _, p := range AllowedPeriods {
		if p == period {
			return nil
		}
	}
	return fmt.Errorf("unsupported period %q (allowed %v)", period, AllowedPeriods)
}

// ValidateInterval rejects bar sizes outside AllowedIntervals.
func ValidateInterval(interval string) error {
	for _, i := range AllowedIntervals {
		if i == interval {
			return nil
		}
	}
	return fmt.Errorf("unsupported interval %q (allowed %v)", interval, AllowedIntervals)
}

// defaultAliases maps friendly names to Yahoo tickers.
var defaultAliases = map[string]string{
	"SPX500": "^GSPC",
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"VIX":    "^VIX",
	"DXY":    "DX-Y.NYB",
}

func resolveSymbol(aliases map[string]string, symbol string) string {
	if mapped, ok := aliases[symbol]; ok {
		return mapped
	}
	return symbol
}
