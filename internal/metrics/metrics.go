package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "mototrader_cycles_total", Help: "Decision cycles completed"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mototrader_orders_total", Help: "Orders filled"},
		[]string{"symbol", "side", "source"},
	)
	OrderRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mototrader_order_rejections_total", Help: "Orders rejected or skipped"},
		[]string{"symbol", "reason"},
	)
	DataUnavailableTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mototrader_data_unavailable_total", Help: "Symbols skipped for missing data"},
		[]string{"symbol"},
	)
	PersistFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "mototrader_persist_failures_total", Help: "Portfolio saves that failed"},
	)
	TargetExposure = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "mototrader_target_exposure", Help: "Latest target exposure per symbol"},
		[]string{"symbol"},
	)
	FactorWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "mototrader_factor_weight", Help: "Current factor weight"},
		[]string{"factor"},
	)
	PortfolioEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "mototrader_portfolio_equity", Help: "Cash plus market value at last cycle"},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		OrdersTotal,
		OrderRejectionsTotal,
		DataUnavailableTotal,
		PersistFailuresTotal,
		TargetExposure,
		FactorWeight,
		PortfolioEquity,
	)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
