package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	serviceActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "service_actions_total",
		Help: "Suspend/restore orchestrations by action and overall result",
	}, []string{
		"action", // suspend, restore
		"result", // success, failed
	})

	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_runs_total",
		Help: "Batch sweep runs by job and result",
	}, []string{
		"job",    // overdue, restoration
		"result", // clean, with_errors
	})

	sweepDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "sweep_duration_seconds",
		Help: "Wall-clock duration of one sweep run",
		// Sweeps walk the whole customer base sequentially
		Buckets: []float64{0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"job"})

	invoicesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoices_generated_total",
		Help: "Invoices created by generation cycle",
	}, []string{
		"cycle", // monthly, daily
	})

	gatewayWebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_webhooks_total",
		Help: "Payment gateway notifications by gateway and canonical status",
	}, []string{
		"gateway",
		"status", // success, pending, failed, invalid, unmatched
	})
)

// RecordServiceAction records one suspend/restore orchestration outcome
func RecordServiceAction(action string, success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	serviceActionsTotal.WithLabelValues(action, result).Inc()
}

// RecordSweep records one sweep run with its duration
func RecordSweep(job string, duration time.Duration, clean bool) {
	result := "with_errors"
	if clean {
		result = "clean"
	}
	sweepRunsTotal.WithLabelValues(job, result).Inc()
	sweepDurationSeconds.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordInvoiceGeneration records invoices created by one generator run
func RecordInvoiceGeneration(cycle string, created int) {
	if created > 0 {
		invoicesGeneratedTotal.WithLabelValues(cycle).Add(float64(created))
	}
}

// RecordWebhook records one processed gateway notification
func RecordWebhook(gateway, status string) {
	gatewayWebhooksTotal.WithLabelValues(gateway, status).Inc()
}
