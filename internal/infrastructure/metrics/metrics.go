package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Import metrics
	ImportsCreated       prometheus.Counter
	ImportsUndone        prometheus.Counter
	TransactionsImported prometheus.Counter
	DuplicatesSkipped    prometheus.Counter
	ImportDuration       prometheus.Histogram

	// Matching metrics
	MatchesConfirmed prometheus.Counter

	// Reconciliation metrics
	ReconciliationsCommitted *prometheus.CounterVec
	ItemsSettled             prometheus.Counter
	AllocatedAmount          prometheus.Histogram
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Import metrics
		ImportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_imports_created_total",
			Help: "Total number of statement imports committed",
		}),
		ImportsUndone: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_imports_undone_total",
			Help: "Total number of import batches undone",
		}),
		TransactionsImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_transactions_imported_total",
			Help: "Total number of transactions stored by imports",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_duplicates_skipped_total",
			Help: "Total number of statement lines skipped as duplicates",
		}),
		ImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentledger_import_duration_seconds",
			Help:    "Duration of statement imports",
			Buckets: prometheus.DefBuckets,
		}),

		// Matching metrics
		MatchesConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_matches_confirmed_total",
			Help: "Total number of confirmed contract matches",
		}),

		// Reconciliation metrics
		ReconciliationsCommitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_reconciliations_committed_total",
				Help: "Total number of reconciled transactions by category",
			},
			[]string{"category"},
		),
		ItemsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentledger_items_settled_total",
			Help: "Total number of financial items fully settled",
		}),
		AllocatedAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentledger_allocated_amount",
			Help:    "Allocated amounts per reconciled transaction",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
	}
}
