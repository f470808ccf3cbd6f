package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	admissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studio_booking",
			Name:      "admissions_total",
			Help:      "Admission decisions by outcome.",
		},
		[]string{"result"},
	)

	promotionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studio_booking",
			Name:      "waitlist_promotions_total",
			Help:      "Waitlisted bookings promoted to confirmed.",
		},
	)

	cancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studio_booking",
			Name:      "cancellations_total",
			Help:      "Bookings transitioned to cancelled.",
		},
	)

	contentionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studio_booking",
			Name:      "admission_contention_total",
			Help:      "Requests that timed out waiting for a slot lock.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(admissionsTotal, promotionsTotal, cancellationsTotal, contentionTotal)
	})
}

// IncAdmission records one admission outcome ("confirmed" or "waitlisted").
func IncAdmission(result string) {
	admissionsTotal.WithLabelValues(result).Inc()
}

func IncPromotion() {
	promotionsTotal.Inc()
}

func IncCancellation() {
	cancellationsTotal.Inc()
}

func IncContention() {
	contentionTotal.Inc()
}
