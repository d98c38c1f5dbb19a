package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the scheduling gateway.
type BookingMetrics struct {
	slotQueries     *prometheus.CounterVec
	bookingOutcomes *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_queries_total",
			Help:      "Total free-slot listings",
		}, []string{"allowed"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Total booking attempts by terminal outcome",
		}, []string{"outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "provider_call_seconds",
			Help:      "Latency of calendar provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotQueries, m.bookingOutcomes, m.providerLatency)
	return m
}

// All observers are nil-safe so components can run without a registry in tests.

func (m *BookingMetrics) ObserveSlotQuery(allowed bool) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(boolLabel(allowed)).Inc()
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveProviderCall(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerLatency.WithLabelValues(op, status).Observe(d.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
