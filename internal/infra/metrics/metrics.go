// Package metrics defines Prometheus metrics for the circulation daemon,
// covering recall letters, sweeps, borrower sync and the hold request queue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecallLettersSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_recall_letters_sent_total",
		Help: "Total number of recall letters delivered, by loan kind and tier",
	}, []string{"kind", "tier"})
	RecallDeliveryFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_recall_delivery_failures_total",
		Help: "Total number of recall letters that could not be rendered or delivered",
	}, []string{"kind"})
	RecallPersistenceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_recall_persistence_failures_total",
		Help: "Total number of delivered letters whose counter update failed",
	}, []string{"kind"})
	RecallTitleFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_recall_title_fallbacks_total",
		Help: "Total number of letters sent with a placeholder title",
	}, []string{"kind"})
	SweepRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_sweep_runs_total",
		Help: "Total number of sweeps by job and outcome (ok, failed, stopped)",
	}, []string{"job", "outcome"})
	SweepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circulation_sweep_duration_seconds",
		Help:    "Duration of sweeps",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"job"})
	BorrowersUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circulation_borrowers_updated_total",
		Help: "Total number of borrower records refreshed from the directory",
	})
	HoldRequestTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_hold_request_transitions_total",
		Help: "Total number of hold request status changes by target status",
	}, []string{"status"})
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_mail_send_success_total",
		Help: "Total number of successfully sent mails",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_mail_send_failure_total",
		Help: "Total number of mails that failed after all retries",
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(RecallLettersSent)
	prometheus.MustRegister(RecallDeliveryFailures)
	prometheus.MustRegister(RecallPersistenceFailures)
	prometheus.MustRegister(RecallTitleFallbacks)
	prometheus.MustRegister(SweepRuns)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(BorrowersUpdated)
	prometheus.MustRegister(HoldRequestTransitions)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
