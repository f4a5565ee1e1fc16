package webhook

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeHandled = "handled"
	outcomeFailed  = "failed"
	outcomeIgnored = "ignored"

	unknownEventLabel = "unknown"
)

var eventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "zeptomail_webhook_events_total",
		Help: "Webhook events received by event type and handling outcome.",
	},
	[]string{"event", "outcome"},
)

func init() {
	prometheus.MustRegister(eventsTotal)
}

func observeEvent(t EventType, outcome string) {
	eventsTotal.WithLabelValues(eventLabel(t), outcome).Inc()
}

// eventLabel folds every type outside the modelled set into one label, since
// the object name comes from an unauthenticated request body.
func eventLabel(t EventType) string {
	switch t {
	case EventHardBounce, EventSoftBounce, EventOpen, EventClick:
		return string(t)
	default:
		return unknownEventLabel
	}
}
