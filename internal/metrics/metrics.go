// Package metrics exposes Prometheus instrumentation for TalkBridge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "talkbridge"

var (
	// WebhookRequests counts handled webhooks by outcome
	// (ok, rejected, busy, ignored, invoke_failed, failed).
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_requests_total",
		Help:      "Webhook deliveries handled, by outcome.",
	}, []string{"outcome"})

	// InvocationDuration observes wall-clock assistant invocation time.
	InvocationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "invocation_duration_seconds",
		Help:      "Assistant subprocess invocation duration.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	// BoardUpdateFailures counts best-effort Deck updates that failed.
	BoardUpdateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "board_update_failures_total",
		Help:      "Deck card updates that failed (non-fatal).",
	})

	// TranscriptionFailures counts audio messages that could not be transcribed.
	TranscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcription_failures_total",
		Help:      "Audio messages that could not be transcribed (non-fatal).",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
