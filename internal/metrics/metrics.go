// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitledger_http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// Ledger
	BalanceUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_balance_updates_total",
			Help: "Ledger debt applications by outcome",
		},
		[]string{"outcome"}, // created|increased|reduced|flipped|cleared
	)
	Settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_settlements_total",
			Help: "Settlement attempts by result",
		},
		[]string{"result"}, // full|partial|rejected
	)
	ExpensesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_expenses_created_total",
			Help: "Expenses recorded, by split type",
		},
		[]string{"split_type"},
	)

	// Idempotency and events
	IdempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "splitledger_idempotent_replays_total",
			Help: "POST requests answered from the idempotency store",
		},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitledger_events_published_total",
			Help: "Domain events handed to the broker, by type and status",
		},
		[]string{"type", "status"}, // status: ok|error
	)

	registerOnce sync.Once
)

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestLatency,
			BalanceUpdates,
			Settlements,
			ExpensesCreated,
			IdempotentReplays,
			EventsPublished,
		)
	})
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
