// Package metrics exposes Prometheus counters for scheduling and dispatch.
// Collectors register with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes.
const (
	OutcomeSent             = "sent"
	OutcomeRecovered        = "recovered"
	OutcomeSkipped          = "skipped"
	OutcomeFailedNotFound   = "failed_not_found"
	OutcomeFailedContent    = "failed_content"
	OutcomeFailedTransport  = "failed_transport"
	OutcomeFailedInternal   = "failed_internal"
	OutcomeBookkeepingError = "bookkeeping_error"
)

// Tick results.
const (
	TickOK         = "ok"
	TickFetchError = "fetch_error"
	TickPanic      = "panic"
)

var (
	// dispatchOutcomes counts processed scheduled emails.
	// Labels:
	// - outcome: one of the Outcome* constants
	dispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "followup",
			Subsystem: "dispatch",
			Name:      "emails_total",
			Help:      "Scheduled emails processed by the dispatch engine, by outcome",
		},
		[]string{"outcome"},
	)

	// sendDuration tracks how long the transport takes to accept a message.
	// Labels:
	// - status: "success" or "failure"
	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "followup",
			Subsystem: "dispatch",
			Name:      "send_duration_seconds",
			Help:      "Duration of transport send calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"status"},
	)

	// ticks counts scheduler ticks.
	// Labels:
	// - result: one of the Tick* constants
	ticks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "followup",
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Scheduler ticks by result",
		},
		[]string{"result"},
	)

	dueEmails = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "followup",
			Subsystem: "scheduler",
			Name:      "due_emails",
			Help:      "Number of due emails fetched by the last successful tick",
		},
	)

	// scheduled counts created scheduled emails.
	// Labels:
	// - delay: the delay symbol
	scheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "followup",
			Subsystem: "schedule",
			Name:      "created_total",
			Help:      "Scheduled emails created, by delay",
		},
		[]string{"delay"},
	)

	cancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "followup",
			Subsystem: "schedule",
			Name:      "cancelled_total",
			Help:      "Scheduled emails cancelled before dispatch",
		},
	)
)

// IncDispatch increments the dispatch counter for outcome.
func IncDispatch(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	dispatchOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveSend records the duration of a transport call.
func ObserveSend(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	sendDuration.WithLabelValues(status).Observe(d.Seconds())
}

// IncTick increments the tick counter for result.
func IncTick(result string) {
	if result == "" {
		result = "unknown"
	}
	ticks.WithLabelValues(result).Inc()
}

// SetDue records how many emails the last tick fetched.
func SetDue(n int) {
	dueEmails.Set(float64(n))
}

// IncScheduled increments the created counter for delay.
func IncScheduled(delay string) {
	if delay == "" {
		delay = "unknown"
	}
	scheduled.WithLabelValues(delay).Inc()
}

// IncCancelled increments the cancellation counter.
func IncCancelled() {
	cancelled.Inc()
}
