package collector

import (
	"context"
	"sync"
	"time"

	"MotoTrader/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without canned bars or errors get a deterministic gentle uptrend.
type MockFetcher struct {
	mu        sync.Mutex
	Bars      map[string][]model.PriceBar
	Errs      map[string]error
	BasePrice float64
	Count     int
	End       time.Time
	calls     map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol, _, _ string) ([]model.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++

	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return append([]model.PriceBar(nil), bars...), nil
	}

	base := m.BasePrice
	if base <= 0 {
		base = 100
	}
	count := m.Count
	if count <= 0 {
		count = 120
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return GenerateBars(base, count, end), nil
}

// Calls reports how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// GenerateBars builds count daily bars ending at end, drifting up 0.1% a bar
// around basePrice.
func GenerateBars(basePrice float64, count int, end time.Time) []model.PriceBar {
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
