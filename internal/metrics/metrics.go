package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askrelay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askrelay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"method", "path"},
	)

	// Broker metrics
	QuestionsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_questions_submitted_total",
			Help: "Total questions appended to the log",
		},
	)

	AnswersRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_answers_recorded_total",
			Help: "Total answers appended to the log",
		},
	)

	AttachmentsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_attachments_stored_total",
			Help: "Total attachments stored",
		},
	)

	LongPollDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_long_poll_deliveries_total",
			Help: "Long-poll requests answered with items",
		},
	)

	LongPollTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_long_poll_timeouts_total",
			Help: "Long-poll requests that reached the deadline empty",
		},
	)

	WaitersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "askrelay_waiters_active",
			Help: "Currently suspended long-poll requests",
		},
	)

	// Consumer metrics
	ConsumerPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askrelay_consumer_polls_total",
			Help: "Consumer poll outcomes",
		},
		[]string{"outcome"}, // "items", "empty", "error"
	)

	AcksSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_consumer_acks_sent_total",
			Help: "Answer acknowledgments sent to the broker",
		},
	)

	AcksSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askrelay_consumer_acks_suppressed_total",
			Help: "Duplicate acknowledgments suppressed by the hash cache",
		},
	)
)
