package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MotoTrader/internal/engine"
	"MotoTrader/internal/model"
)

type fakeSource struct {
	status *engine.Status
	err    error
	latest *model.CycleSummary
	panics bool
}

func (f *fakeSource) Status(context.Context) (*engine.Status, error) {
	if f.panics {
		panic("boom")
	}
	return f.status, f.err
}

func (f *fakeSource) Weights() (model.WeightVector, bool) {
	return model.WeightVector{model.FactorTech: 0.5, model.FactorMacro: 0.3, model.FactorFund: 0.2}, false
}

func (f *fakeSource) Latest() *model.CycleSummary { return f.latest }

func sampleStatus() *engine.Status {
	at := time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC)
	p := model.NewPortfolio(90000)
	p.Positions["AAPL"] = model.Position{Quantity: 10, AverageCost: 100}
	p.History = []model.LedgerEntry{
		{Time: at, Symbol: "AAPL", Side: model.SideBuy, Quantity: 20, Price: 100},
		{Time: at.Add(time.Hour), Symbol: "AAPL", Side: model.SideSell, Quantity: 10, Price: 110, Reason: model.ReasonAuto},
	}
	return &engine.Status{Portfolio: p, Prices: map[string]float64{"AAPL": 110}, MarketValue: 1100, Equity: 91100}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, NewRouter(&fakeSource{}, zerolog.Nop()), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPortfolio(t *testing.T) {
	h := NewRouter(&fakeSource{status: sampleStatus()}, zerolog.Nop())
	rec := do(t, h, http.MethodGet, "/api/portfolio")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st engine.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.InDelta(t, 91100, st.Equity, 1e-9)
	assert.Equal(t, int64(10), st.Portfolio.Positions["AAPL"].Quantity)
}

func TestPortfolioError(t *testing.T) {
	h := NewRouter(&fakeSource{err: errors.New("disk gone")}, zerolog.Nop())
	rec := do(t, h, http.MethodGet, "/api/portfolio")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk gone")
}

func TestHistory(t *testing.T) {
	h := NewRouter(&fakeSource{status: sampleStatus()}, zerolog.Nop())

	tests := []struct {
		name     string
		path     string
		code     int
		wantLen  int
		wantSide model.Side
	}{
		{"default limit", "/api/history", http.StatusOK, 2, model.SideSell},
		{"limit one", "/api/history?limit=1", http.StatusOK, 1, model.SideSell},
		{"bad limit", "/api/history?limit=x", http.StatusBadRequest, 0, ""},
		{"zero limit", "/api/history?limit=0", http.StatusBadRequest, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path)
			require.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}
			var body struct {
				Total   int                 `json:"total"`
				Entries []model.LedgerEntry `json:"entries"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, 2, body.Total)
			require.Len(t, body.Entries, tt.wantLen)
			assert.Equal(t, tt.wantSide, body.Entries[0].Side)
		})
	}
}

func TestWeights(t *testing.T) {
	rec := do(t, NewRouter(&fakeSource{}, zerolog.Nop()), http.MethodGet, "/api/weights")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mode    string             `json:"mode"`
		Weights model.WeightVector `json:"weights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "static", body.Mode)
	assert.InDelta(t, 0.5, body.Weights[model.FactorTech], 1e-12)
}

func TestLatestCycle(t *testing.T) {
	src := &fakeSource{}
	h := NewRouter(src, zerolog.Nop())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/cycle/latest").Code)

	src.latest = &model.CycleSummary{ID: "c-1", Equity: 100000}
	rec := do(t, h, http.MethodGet, "/api/cycle/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c-1"`)
}

func TestReadOnly(t *testing.T) {
	h := NewRouter(&fakeSource{status: sampleStatus()}, zerolog.Nop())
	for _, path := range []string{"/api/portfolio", "/api/history", "/api/weights"} {
		rec := do(t, h, http.MethodPost, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestMetricsRoute(t *testing.T) {
	rec := do(t, NewRouter(&fakeSource{}, zerolog.Nop()), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mototrader_cycles_total")
}

func TestRecovery(t *testing.T) {
	h := NewRouter(&fakeSource{panics: true}, zerolog.Nop())
	rec := do(t, h, http.MethodGet, "/api/portfolio")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
