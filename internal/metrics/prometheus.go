package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fund-advisor/internal/types"
)

// Recorder implements interfaces.Metrics on its own Prometheus registry so a
// batch run can be exported without a server.
type Recorder struct {
	registry *prometheus.Registry
	results  *prometheus.CounterVec
	retries  *prometheus.CounterVec
	signals  *prometheus.CounterVec
	inFlight prometheus.Gauge
	latency  *prometheus.HistogramVec
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_fund_results_total",
				Help: "Per-fund analysis outcomes by status and error kind",
			},
			[]string{"status", "kind"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_retries_total",
				Help: "Retried attempts by the error kind that triggered them",
			},
			[]string{"kind"},
		),
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_signals_total",
				Help: "Published recommendations by signal type",
			},
			[]string{"signal_type"},
		),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_units_in_flight",
			Help: "Fund analyses currently running",
		}),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the underlying registry for tests and exporters.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) RecordResult(status types.Status, kind types.ErrorKind) {
	k := string(kind)
	if k == "" {
		k = "none"
	}
	r.results.WithLabelValues(string(status), k).Inc()
}

func (r *Recorder) RecordRetry(kind types.ErrorKind) {
	r.retries.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) RecordSignal(s types.SignalType) {
	r.signals.WithLabelValues(string(s)).Inc()
}

// InFlight adjusts the running-units gauge by delta.
func (r *Recorder) InFlight(delta int) {
	r.inFlight.Add(float64(delta))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// WriteTextfile dumps every metric in the text exposition format, for the
// node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
