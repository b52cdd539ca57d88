package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the polling pipeline.
type Metrics struct {
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram

	ReadingsFetched *prometheus.CounterVec // labels: source={weather,marine,lightning}
	FetchErrors     *prometheus.CounterVec // labels: source={weather,marine,lightning}

	RiskScore        prometheus.Gauge
	AlertsSent       *prometheus.CounterVec // labels: level
	DeliveryErrors   prometheus.Counter
	AlertsSuppressed prometheus.Counter
}

// NewMetrics creates and registers all instruments with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.ReadingsFetched,
		m.FetchErrors,
		m.RiskScore,
		m.AlertsSent,
		m.DeliveryErrors,
		m.AlertsSuppressed,
	)
	return m
}

// NewMetricsForTesting creates unregistered instruments so parallel tests do
// not trip the "already registered" panic.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_radar",
			Name:      "cycles_total",
			Help:      "Completed poll cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_radar",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full fetch-score-notify cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ReadingsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_radar",
			Name:      "readings_fetched_total",
			Help:      "Readings successfully fetched, by source.",
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_radar",
			Name:      "fetch_errors_total",
			Help:      "Provider fetch failures, by source.",
		}, []string{"source"}),
		RiskScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_radar",
			Name:      "risk_score",
			Help:      "Composite storm-risk score of the last cycle.",
		}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_radar",
			Name:      "alerts_sent_total",
			Help:      "Alerts delivered, by severity level.",
		}, []string{"level"}),
		DeliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_radar",
			Name:      "delivery_errors_total",
			Help:      "Alert deliveries that failed at the transport.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_radar",
			Name:      "alerts_suppressed_total",
			Help:      "Assessments the notification gate declined to send.",
		}),
	}
}
