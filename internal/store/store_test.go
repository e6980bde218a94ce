package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MotoTrader/internal/model"
)

func samplePortfolio() model.Portfolio {
	p := model.NewPortfolio(99500)
	p.Positions["SPY"] = model.Position{Quantity: 10, AverageCost: 50}
	p.History = append(p.History, model.LedgerEntry{
		Time:     time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC),
		Symbol:   "SPY",
		Side:     model.SideBuy,
		Quantity: 10,
		Price:    50,
	})
	return p
}

// assertSamePortfolio compares cash by value, since equal decimals may differ
// in scale after a round trip.
func assertSamePortfolio(t *testing.T, want, got model.Portfolio) {
	t.Helper()
	assert.True(t, want.Cash.Equal(got.Cash), "cash: want %s, got %s", want.Cash, got.Cash)
	got.Cash = want.Cash
	assert.Equal(t, want, got)
}

func TestJSONStore_MissingFileIsDefault(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "portfolio.json"), 25000)
	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25000.0, p.CashFloat())
	assert.Empty(t, p.Positions)
	assert.NotNil(t, p.History)
}

func TestJSONStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(filepath.Join(dir, "nested", "portfolio.json"), model.DefaultStartingCash)
	ctx := context.Background()

	want := samplePortfolio()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assertSamePortfolio(t, want, got)

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONStore_Schema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	p := samplePortfolio()
	p.History[0].Reason = model.ReasonAuto
	require.NoError(t, NewJSONStore(path, 0).Save(context.Background(), p))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, 99500.0, doc["cash"])
	pos := doc["positions"].(map[string]any)["SPY"].(map[string]any)
	assert.Equal(t, 10.0, pos["quantity"])
	assert.Equal(t, 50.0, pos["averageCost"])
	entry := doc["history"].([]any)[0].(map[string]any)
	for _, key := range []string{"time", "symbol", "side", "quantity", "price", "reason"} {
		assert.Contains(t, entry, key)
	}
	assert.Equal(t, "BUY", entry["side"])
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewJSONStore(path, 0).Load(context.Background())
	assert.Error(t, err)
}

func TestJSONStore_SaveFailure(t *testing.T) {
	// A regular file where the parent directory should be.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewJSONStore(filepath.Join(blocker, "portfolio.json"), 0)
	assert.Error(t, s.Save(context.Background(), samplePortfolio()))
}

func TestAttributionFile_RoundTrip(t *testing.T) {
	f := NewAttributionFile(filepath.Join(t.TempDir(), "attribution.json"))

	empty, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, empty.Weights)
	assert.NotNil(t, empty.Pending)

	state := model.AttributionState{
		Weights: model.WeightVector{model.FactorTech: 0.5, model.FactorMacro: 0.25, model.FactorFund: 0.25},
		History: map[model.FactorKey][]float64{model.FactorTech: {1, -1, 1}},
		Pending: map[string]model.PendingAttribution{
			"SPY": {
				Time:          time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Price:         510.5,
				Contributions: model.Contributions{model.FactorTech: 1, model.FactorMacro: -1, model.FactorFund: 0},
			},
		},
	}
	require.NoError(t, f.Save(state))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Weights, got.Weights)
	assert.Equal(t, state.History, got.History)
	assert.Equal(t, state.Pending, got.Pending)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(1000)

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p.CashFloat())

	want := samplePortfolio()
	require.NoError(t, s.Save(ctx, want))

	// Mutating the saved value must not leak into the store.
	want.Positions["SPY"] = model.Position{}
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Positions["SPY"].Quantity)

	assert.ErrorIs(t, s.Save(ctx, model.NewPortfolio(1)), ErrHistoryRewritten)
}

func openSQLite(t *testing.T, path, account string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(path, account, model.DefaultStartingCash, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s := openSQLite(t, path, "paper")

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStartingCash, p.CashFloat())

	want := samplePortfolio()
	require.NoError(t, s.Save(ctx, want))

	want.Cash = decimal.NewFromInt(100000)
	want.Positions["SPY"] = model.Position{Quantity: 0, AverageCost: 50}
	want.History = append(want.History, model.LedgerEntry{
		Time:     time.Date(2024, 5, 2, 16, 30, 0, 0, time.UTC),
		Symbol:   "SPY",
		Side:     model.SideSell,
		Quantity: 10,
		Price:    50,
		Reason:   model.ReasonAuto,
	})
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assertSamePortfolio(t, want, got)
}

func TestStores_CashIsExact(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sqlite := openSQLite(t, filepath.Join(dir, "ledger.db"), "paper")
	stores := map[string]Store{
		"json":   NewJSONStore(filepath.Join(dir, "portfolio.json"), 0),
		"sqlite": sqlite,
	}

	want := samplePortfolio()
	// More digits than a float64 holds.
	want.Cash = decimal.RequireFromString("607253.439545515340000000001")
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, want))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assertSamePortfolio(t, want, got)
		})
	}
}

func TestStores_AgreeOnEntryTime(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := samplePortfolio()

	js := NewJSONStore(filepath.Join(dir, "portfolio.json"), 0)
	sq := openSQLite(t, filepath.Join(dir, "ledger.db"), "paper")
	require.NoError(t, js.Save(ctx, p))
	require.NoError(t, sq.Save(ctx, p))

	fromJSON, err := js.Load(ctx)
	require.NoError(t, err)
	fromSQLite, err := sq.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, fromJSON.History, fromSQLite.History)
	assert.Equal(t, time.UTC, fromJSON.History[0].Time.Location())
}

func TestSQLiteStore_AppendOnly(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, filepath.Join(t.TempDir(), "ledger.db"), "paper")
	require.NoError(t, s.Save(ctx, samplePortfolio()))
	assert.ErrorIs(t, s.Save(ctx, model.NewPortfolio(5)), ErrHistoryRewritten)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 99500.0, got.CashFloat(), "failed save must roll back")
}

func TestSQLiteStore_AccountsAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	a := openSQLite(t, path, "a")
	require.NoError(t, a.Save(ctx, samplePortfolio()))

	b := openSQLite(t, path, "b")
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStartingCash, got.CashFloat())
	assert.Empty(t, got.History)
}
