// Package metrics exposes Prometheus counters the pipeline stages update
// during operation:
//   - bridge_signals_total{action}        – signals evaluated (buy|sell|hold)
//   - bridge_tickets_total{action,source} – tickets appended to the ledger
//   - bridge_suppressions_total{reason}   – signals/decisions gated away
//   - bridge_self_heals_total             – corrupt/missing artifacts reset
//   - bridge_persist_failures_total       – durability failures (cycle aborted)
//   - bridge_open_trades                  – current open-trade count (gauge)
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_signals_total",
			Help: "Signals evaluated, by action",
		},
		[]string{"action"},
	)

	Tickets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_tickets_total",
			Help: "Order tickets appended to the ledger",
		},
		[]string{"action", "source"}, // source: router|executor
	)

	Suppressions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_suppressions_total",
			Help: "Signals or decisions suppressed by a risk gate",
		},
		[]string{"reason"},
	)

	SelfHeals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_self_heals_total",
			Help: "Corrupt or missing artifacts reset to an empty baseline",
		},
	)

	PersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_persist_failures_total",
			Help: "Ledger persistence failures (the cycle's ticket was discarded)",
		},
	)

	OpenTrades = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_open_trades",
			Help: "Open trades currently counted against the ceiling",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Signals,
		Tickets,
		Suppressions,
		SelfHeals,
		PersistFailures,
		OpenTrades,
	)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
