package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	matchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "masterok",
			Name:      "match_requests_total",
			Help:      "Count of matching requests by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	bookingCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "masterok",
			Name:      "booking_committed_total",
			Help:      "Count of jobs booked into master schedules.",
		},
	)

	bookingSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "masterok",
			Name:      "booking_skipped_total",
			Help:      "Count of bookings skipped because the day had no schedule entry.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "masterok",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(matchRequests, bookingCommitted, bookingSkipped, httpRequests)
	})
}

func IncMatchRequest(strategy, outcome string) {
	matchRequests.WithLabelValues(strategy, outcome).Inc()
}

func IncBookingCommitted() {
	bookingCommitted.Inc()
}

func IncBookingSkipped() {
	bookingSkipped.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
