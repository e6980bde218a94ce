package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MotoTrader/internal/model"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "rec.db"), zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()

	now := time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC)
	summary := &model.CycleSummary{
		ID:        "c-1",
		StartedAt: now,
		Cash:      95000,
		Equity:    100000,
		Weights:   model.UniformWeights(),
		Reports: []model.CycleReport{
			{
				Symbol:         "SPY",
				Signals:        model.FactorSignals{Tech: model.Bullish},
				Weights:        model.UniformWeights(),
				CombinedScore:  1.0 / 3,
				TargetExposure: 0.02,
				LastPrice:      500,
				Action:         &model.ReconcileAction{Kind: model.ActionBuy, Quantity: 4},
			},
			{Symbol: "SOFI", Skipped: "data unavailable"},
		},
	}
	require.NoError(t, r.RecordCycle(summary))
	require.NoError(t, r.RecordTrade(&TradeEvent{
		Time: now, Symbol: "SPY", Side: model.SideBuy, Quantity: 4, Price: 500, Source: "auto", CycleID: "c-1",
	}))

	for table, want := range map[string]int{"cycles": 1, "cycle_reports": 2, "trades": 1} {
		n, err := r.CountRows(table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}

	// Cycle IDs are unique.
	assert.Error(t, r.RecordCycle(summary))
	n, err := r.CountRows("cycle_reports")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = r.CountRows("sqlite_master; DROP TABLE trades")
	assert.Error(t, err)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordCycle(&model.CycleSummary{}))
	assert.NoError(t, r.RecordTrade(&TradeEvent{}))
	assert.NoError(t, r.Close())
}
