// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the copy engine.
type Metrics struct {
	// Stream metrics
	MessagesReceived   prometheus.Counter
	ExtractionFailures *prometheus.CounterVec // label: kind (not_trade|no_signer)
	TradesDetected     prometheus.Counter
	TargetTrades       prometheus.Counter

	// Dispatch metrics
	DispatchInFlight prometheus.Gauge
	SwapsSucceeded   prometheus.Counter
	SwapsFailed      prometheus.Counter
	QuotaRejections  prometheus.Counter
	LedgerErrors     prometheus.Counter

	// Latency metrics
	MessageHandling prometheus.Histogram
	SwapExecution   prometheus.Histogram

	// Session metrics
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec // label: reason (disconnect|quota|shutdown)
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "copy_engine"
	}

	return &Metrics{
		MessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_received_total",
			Help:      "Total number of raw stream messages received",
		}),
		ExtractionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "extraction_failures_total",
			Help:      "Total number of messages that failed trade extraction, by kind",
		}, []string{"kind"}),
		TradesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "trades_detected_total",
			Help:      "Total number of trade events successfully extracted",
		}),
		TargetTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "target_trades_total",
			Help:      "Total number of trade events attributed to tracked targets",
		}),
		DispatchInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "in_flight",
			Help:      "Number of copy-swap dispatch units currently in flight",
		}),
		SwapsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "swaps_succeeded_total",
			Help:      "Total number of copy swaps that completed successfully",
		}),
		SwapsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "swaps_failed_total",
			Help:      "Total number of copy swaps that failed at the executor",
		}),
		QuotaRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "quota_rejections_total",
			Help:      "Total number of dispatches rejected by the usage quota",
		}),
		LedgerErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "ledger_errors_total",
			Help:      "Total number of usage-ledger read/write failures",
		}),
		MessageHandling: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "message_handling_seconds",
			Help:      "Time from message receive to dispatch decision",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		SwapExecution: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "swap_execution_seconds",
			Help:      "Duration of executor calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Total number of monitoring sessions started",
		}),
		SessionsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Total number of monitoring sessions ended, by reason",
		}, []string{"reason"}),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
