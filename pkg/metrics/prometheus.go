package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records hub and pipeline metrics using Prometheus.
type Recorder struct {
	envelopesTotal  *prometheus.CounterVec
	droppedClients  prometheus.Counter
	connectedGauge  prometheus.Gauge
	errorsTotal     *prometheus.CounterVec
	lastProbability *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		envelopesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveedge_envelopes_total",
				Help: "Total number of envelopes broadcast through the hub",
			},
			[]string{"kind"},
		),
		droppedClients: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "liveedge_hub_dropped_clients_total",
				Help: "Total number of clients dropped for full send buffers",
			},
		),
		connectedGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "liveedge_hub_connected_clients",
				Help: "Current number of connected hub clients",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liveedge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastProbability: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "liveedge_market_probability",
				Help: "Last observed yes probability for a tracked market",
			},
			[]string{"market"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liveedge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEnvelope records a broadcast envelope by kind.
func (r *Recorder) RecordEnvelope(kind string) {
	r.envelopesTotal.WithLabelValues(kind).Inc()
}

// RecordDroppedClient records a client dropped for backpressure.
func (r *Recorder) RecordDroppedClient() {
	r.droppedClients.Inc()
}

// SetConnectedClients records the current hub client count.
func (r *Recorder) SetConnectedClients(n int) {
	r.connectedGauge.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordProbability records the last probability for a market.
func (r *Recorder) RecordProbability(market string, p float64) {
	r.lastProbability.WithLabelValues(market).Set(p)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
