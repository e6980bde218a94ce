package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	OrdersTotal.WithLabelValues("SPY", "BUY", "auto").Inc()
	FactorWeight.WithLabelValues("tech").Set(0.5)
	TargetExposure.WithLabelValues("SPY").Set(0.03)
	DataUnavailableTotal.WithLabelValues("SOFI").Inc()
	OrderRejectionsTotal.WithLabelValues("SPY", "insufficient_funds").Inc()
	CyclesTotal.Inc()
	PersistFailuresTotal.Add(0)
	PortfolioEquity.Set(100000)

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"mototrader_cycles_total",
		"mototrader_orders_total",
		"mototrader_order_rejections_total",
		"mototrader_data_unavailable_total",
		"mototrader_persist_failures_total",
		"mototrader_target_exposure",
		"mototrader_factor_weight",
		"mototrader_portfolio_equity",
	} {
		assert.True(t, names[want], want)
	}
}

func TestHandler(t *testing.T) {
	CyclesTotal.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mototrader_cycles_total")
}
