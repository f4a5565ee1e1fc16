package zeptomail

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
	outcomeRequest   = "request_error"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeptomail_requests_total",
			Help: "Requests sent to the ZeptoMail API by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zeptomail_request_duration_seconds",
			Help:    "Duration of ZeptoMail API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case IsTransport(err):
		return outcomeTransport
	case IsDecode(err):
		return outcomeDecode
	default:
		return outcomeRequest
	}
}

func observeRequest(endpoint string, err error, d time.Duration) {
	requestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
