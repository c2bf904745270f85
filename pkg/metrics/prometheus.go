package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	trades        *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	steps         *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	backtests     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpull_trades_processed_total",
				Help: "Trades consumed by the aggregator, by kind (all, darkpool)",
			},
			[]string{"kind"},
		),
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpull_provider_calls_total",
				Help: "Market-data provider calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		steps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpull_pipeline_steps_total",
				Help: "Pipeline stage executions by outcome",
			},
			[]string{"step", "success"},
		),
		stepDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "darkpull_pipeline_step_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"step"},
		),
		backtests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpull_backtests_total",
				Help: "Straddle backtests by data source",
			},
			[]string{"source"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpull_notifications_total",
				Help: "Notification attempts by channel and delivery",
			},
			[]string{"channel", "delivered"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "darkpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTrades adds n processed trades of the given kind.
func (r *Recorder) RecordTrades(kind string, n int) {
	r.trades.WithLabelValues(kind).Add(float64(n))
}

// RecordProviderCall counts one upstream call.
func (r *Recorder) RecordProviderCall(op, result string) {
	r.providerCalls.WithLabelValues(op, result).Inc()
}

// RecordStep records a pipeline stage outcome and its duration.
func (r *Recorder) RecordStep(step string, success bool, seconds float64) {
	r.steps.WithLabelValues(step, strconv.FormatBool(success)).Inc()
	r.stepDuration.WithLabelValues(step).Observe(seconds)
}

func (r *Recorder) RecordBacktest(source string) {
	r.backtests.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordNotification(channel string, delivered bool) {
	r.notifications.WithLabelValues(channel, strconv.FormatBool(delivered)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
