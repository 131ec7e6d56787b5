// Package metrics exposes Prometheus counters for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	WebhookEvents         *prometheus.CounterVec
	RepliesGenerated      prometheus.Counter
	SendFailures          prometheus.Counter
	TranscriptionFailures prometheus.Counter
}

// New registers the relay counters on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "talktrace_webhook_events_total",
			Help: "Inbound webhook events by outcome",
		}, []string{"outcome"}),
		RepliesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "talktrace_replies_generated_total",
			Help: "Automated replies produced by the responder",
		}),
		SendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "talktrace_send_failures_total",
			Help: "Outbound WhatsApp send failures",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "talktrace_transcription_failures_total",
			Help: "Voice notes that could not be transcribed",
		}),
	}
}
