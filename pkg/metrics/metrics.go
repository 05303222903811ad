package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the HTTP and booking collectors exported on /metrics.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	BookingsCreated   prometheus.Counter
	BookingConflicts  prometheus.Counter
	InvalidSlots      prometheus.Counter
	BookingsCancelled *prometheus.CounterVec
	PaymentsConfirmed prometheus.Counter
	PlatformFeeYen    prometheus.Counter
	WebhookEvents     *prometheus.CounterVec
}

func New(reg prometheus.Registerer, service string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": service}

	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by method, route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "route"}),
		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Bookings accepted as PENDING.",
			ConstLabels: labels,
		}),
		BookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Name:        "booking_conflicts_total",
			Help:        "Booking requests refused because the slot overlaps a held booking.",
			ConstLabels: labels,
		}),
		InvalidSlots: f.NewCounter(prometheus.CounterOpts{
			Name:        "booking_invalid_slots_total",
			Help:        "Booking requests outside availability, in the past or beyond the horizon.",
			ConstLabels: labels,
		}),
		BookingsCancelled: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_cancelled_total",
			Help:        "Cancelled bookings by cause.",
			ConstLabels: labels,
		}, []string{"cause"}),
		PaymentsConfirmed: f.NewCounter(prometheus.CounterOpts{
			Name:        "payments_confirmed_total",
			Help:        "Payments moved to SUCCEEDED.",
			ConstLabels: labels,
		}),
		PlatformFeeYen: f.NewCounter(prometheus.CounterOpts{
			Name:        "platform_fee_yen_total",
			Help:        "Platform fees withheld on confirmed payments.",
			ConstLabels: labels,
		}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "payment_webhook_events_total",
			Help:        "Gateway events received by type and outcome.",
			ConstLabels: labels,
		}, []string{"type", "outcome"}),
	}
}
