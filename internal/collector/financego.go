package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"MotoTrader/internal/model"
)

// FinanceGoFetcher reads bars through the piquette/finance-go chart client.
type FinanceGoFetcher struct {
	SymbolMap map[string]string
	now       func() time.Time
}

func NewFinanceGoFetcher() *FinanceGoFetcher {
	aliases := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	return &FinanceGoFetcher{SymbolMap: aliases, now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "finance-go" }

func (f *FinanceGoFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := f.now().UTC()
	start, err := periodStart(end, period)
	if err != nil {
		return nil, err
	}

	params := &chart.Params{
		Symbol:   resolveSymbol(f.SymbolMap, symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	}
	iter := chart.Get(params)

	var bars []model.PriceBar
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := iter.Bar()
		bars = append(bars, model.PriceBar{
			Time:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.Close.InexactFloat64(),
			Volume: float64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	return model.SortBars(bars), nil
}

// periodStart turns a Yahoo-style range into a start time.
func periodStart(end time.Time, period string) (time.Time, error) {
	switch period {
	case "1mo":
		return end.AddDate(0, -1, 0), nil
	case "3mo":
		return end.AddDate(0, -3, 0), nil
	case "6mo":
		return end.AddDate(0, -6, 0), nil
	case "1y":
		return end.AddDate(-1, 0, 0), nil
	case "2y":
		return end.AddDate(-2, 0, 0), nil
	case "5y":
		return end.AddDate(-5, 0, 0), nil
	}
	return time.Time{}, ValidatePeriod(period)
}
