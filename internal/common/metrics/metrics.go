// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsInitiated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_payments_initiated_total",
			Help: "Total number of pay actions that entered the state machine",
		},
		[]string{"context"},
	)

	PaymentsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_payments_verified_total",
			Help: "Total number of payments that passed server-side verification",
		},
		[]string{"context"},
	)

	PaymentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_payments_failed_total",
			Help: "Total number of payment attempts that ended in an error",
		},
		[]string{"context", "error_code"},
	)

	PaymentPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_payment_phase_duration_seconds",
			Help: "Duration of each payment orchestration phase",
		},
		[]string{"phase"},
	)

	LedgerAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_ledger_appends_total",
			Help: "Total ledger entries appended, including deduplicated agent inserts",
		},
		[]string{"ledger", "outcome"},
	)
)
