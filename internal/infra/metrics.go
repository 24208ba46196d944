package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the cash register counters exposed on /metrics.
// Each instance owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	sessionsOpened prometheus.Counter
	sessionsClosed *prometheus.CounterVec
	transactions   *prometheus.CounterVec
	cuts           prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		sessionsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cash_register_sessions_opened_total",
				Help: "Total cash register sessions opened.",
			},
		),
		sessionsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cash_register_sessions_closed_total",
				Help: "Total cash register sessions closed, by reconciliation outcome.",
			},
			[]string{"classification"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cash_register_transactions_recorded_total",
				Help: "Total ledger transactions recorded, by type.",
			},
			[]string{"type"},
		),
		cuts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cash_register_cuts_total",
				Help: "Total cash cuts performed.",
			},
		),
	}
}

func (m *Metrics) IncrSessionOpened() { m.sessionsOpened.Inc() }

func (m *Metrics) IncrSessionClosed(classification string) {
	m.sessionsClosed.WithLabelValues(classification).Inc()
}

func (m *Metrics) IncrTransaction(txType string) { m.transactions.WithLabelValues(txType).Inc() }

func (m *Metrics) IncrCut() { m.cuts.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
