package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FareLookups        *prometheus.CounterVec
	PriceObservations  prometheus.Counter
	LedgerGaps         prometheus.Counter
	PriceDrops         prometheus.Counter
	EcreditTransitions *prometheus.CounterVec
	SubmissionAttempts *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	EventsDropped      prometheus.Counter
	BatchDuration      *prometheus.HistogramVec
	ErrorsCount        *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FareLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fare_lookups_total",
			Help:      "Fare lookups by source and outcome",
		}, []string{"source", "outcome"}),
		PriceObservations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_observations_total",
			Help:      "The total number of price observations appended",
		}),
		LedgerGaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_gaps_total",
			Help:      "Flights created without their seed price observation",
		}),
		PriceDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_drops_total",
			Help:      "The total number of detected price drops",
		}),
		EcreditTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ecredit_transitions_total",
			Help:      "Ecredit request transitions by target status",
		}, []string{"status"}),
		SubmissionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_attempts_total",
			Help:      "Airline submission channel attempts",
		}, []string{"airline", "channel", "outcome"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by sender and outcome",
		}, []string{"sender", "outcome"}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Domain events dropped because the bus buffer was full",
		}),
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time taken by a batch pass",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
