package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CallsTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivr_calls_triggered_total",
			Help: "Outbound call trigger outcomes",
		},
		[]string{"result"}, // success|invalid|misconfigured|provider_error
	)

	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivr_webhooks_total",
			Help: "Provider webhook callbacks by endpoint",
		},
		[]string{"endpoint"}, // answer|language|action|invalid|hangup
	)

	MenuSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivr_menu_selections_total",
			Help: "Digits pressed per menu level",
		},
		[]string{"menu", "choice"}, // language|action , 1|2|invalid
	)

	CallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ivr_call_duration_seconds",
			Help:    "Duration of ended calls as reported by the provider",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300, 600},
		},
	)

	// ExportedCallDuration is observed by the call-events worker from the
	// Kafka stream; CallDuration is observed by the server at /hangup.
	ExportedCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ivr_call_events_duration_seconds",
			Help:    "Duration of ended calls read from the call-end event stream",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300, 600},
		},
	)

	CallEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivr_call_events_total",
			Help: "Call-end events by stage",
		},
		[]string{"stage"}, // published|publish_failed|consumed|bad_payload
	)
)

var once sync.Once

// MustRegister registers all collectors once; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	once.Do(func() {
		r.MustRegister(
			CallsTriggered,
			WebhooksTotal,
			MenuSelections,
			CallDuration,
			ExportedCallDuration,
			CallEventsTotal,
		)
	})
}
