package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Lifecycle metrics
	BookingsTotal       prometheus.Counter
	BookingsRejected    *prometheus.CounterVec
	RequestsTotal       prometheus.Counter
	RequestsResolved    *prometheus.CounterVec
	CancellationsTotal  prometheus.Counter
	ReschedulesProposed prometheus.Counter
	ReschedulesResolved *prometheus.CounterVec
	AppointmentsPurged  prometheus.Counter

	// Store metrics
	PersistLatency *prometheus.HistogramVec
	PersistErrors  *prometheus.CounterVec
	ChangeEvents   *prometheus.CounterVec

	// Notification metrics
	MessagesPublished *prometheus.CounterVec
	EmailsSent        *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		BookingsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_total",
			Help:      "Total number of appointments booked",
		}),
		BookingsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_rejected_total",
			Help:      "Bookings rejected, labelled by reason",
		}, []string{"reason"}),
		RequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_requests_total",
			Help:      "Total number of appointment requests created",
		}),
		RequestsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_requests_resolved_total",
			Help:      "Appointment requests resolved, labelled by outcome",
		}, []string{"outcome"}),
		CancellationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cancellations_total",
			Help:      "Total number of appointments cancelled",
		}),
		ReschedulesProposed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reschedules_proposed_total",
			Help:      "Total number of reschedule proposals created",
		}),
		ReschedulesResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reschedules_resolved_total",
			Help:      "Reschedule proposals resolved, labelled by outcome",
		}, []string{"outcome"}),
		AppointmentsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointments_purged_total",
			Help:      "Cancelled appointments removed by the retention sweep",
		}),
		PersistLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "persist_duration_seconds",
			Help:      "Time spent persisting collection blobs",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"collection"}),
		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "persist_errors_total",
			Help:      "Failed collection persistence attempts",
		}, []string{"collection"}),
		ChangeEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "change_events_total",
			Help:      "Entity store change events, labelled by collection and op",
		}, []string{"collection", "op"}),
		MessagesPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_published_total",
			Help:      "Messages published to the broker, labelled by channel and status",
		}, []string{"channel", "status"}),
		EmailsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "emails_sent_total",
			Help:      "Notification emails sent, labelled by status",
		}, []string{"status"}),
	}
}
