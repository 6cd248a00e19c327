package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Sweep executions by name and result",
		},
		[]string{"sweep", "result"},
	)
	SweepItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_items_total",
			Help: "Items processed by sweeps, by name and result",
		},
		[]string{"sweep", "result"},
	)
	SweepSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_skipped_runs_total",
			Help: "Sweep runs skipped because the previous run still held the guard",
		},
		[]string{"sweep"},
	)
	AccruedSats = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accrued_profit_sats_total",
			Help: "Total satoshi yield credited by the accrual sweep",
		},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(SweepRuns, SweepItems, SweepSkips, AccruedSats, HTTPRequests)
}
