package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_ingested_total",
			Help: "Total order line items stored",
		},
	)

	FetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_fetch_failures_total",
			Help: "Total failed Orders API fetches",
		},
	)

	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_emails_sent_total",
			Help: "Total review request emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_email_failures_total",
			Help: "Total failed review request emails",
		},
	)

	TemplateMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_template_misses_total",
			Help: "Total due orders skipped for lack of a template",
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of a full sweep over sellers",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)
)

func Init() {
	prometheus.MustRegister(OrdersIngested)
	prometheus.MustRegister(FetchFailures)
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(TemplateMisses)
	prometheus.MustRegister(SweepDuration)
}
