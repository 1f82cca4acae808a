package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Workflow
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_transitions_total",
			Help: "Lifecycle operations by action and result",
		},
		[]string{"action", "result"}, // create|approve|reject|... x ok|not_found|validation|forbidden|error
	)
	BatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transaction_batch_size",
			Help:    "Transactions touched per batch operation",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"action"},
	)

	// Audit
	AuditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Audit entries appended",
		},
		[]string{"entity_type", "action"},
	)
	AuditSerializationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_serialization_failures_total",
			Help: "Audit entries written with a fallback detail",
		},
	)

	initOnce sync.Once
)

// /metrics endpoint handler
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(TransitionsTotal)
		prometheus.MustRegister(BatchSize)
		prometheus.MustRegister(AuditEntriesTotal)
		prometheus.MustRegister(AuditSerializationFailures)
	})
}
