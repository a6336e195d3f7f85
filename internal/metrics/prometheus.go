package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type promMetrics struct {
	registry *prometheus.Registry
	probes   *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  prometheus.Histogram
	bytes    prometheus.Counter
}

func newPromMetrics(runID string) *promMetrics {
	labels := prometheus.Labels{}
	if runID != "" {
		labels["run_id"] = runID
	}
	m := &promMetrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sockprobe",
			Name:        "probes_total",
			Help:        "Probes completed, by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sockprobe",
			Name:        "probe_failures_total",
			Help:        "Failed probes, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "sockprobe",
			Name:        "probe_duration_seconds",
			Help:        "Time from dial to the end of the response read.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sockprobe",
			Name:        "response_bytes_total",
			Help:        "Response bytes captured by successful probes.",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.probes, m.failures, m.latency, m.bytes)
	return m
}

func (m *promMetrics) observe(latency time.Duration, bytes int, reason string, ok bool) {
	m.latency.Observe(latency.Seconds())
	if ok {
		m.probes.WithLabelValues("success").Inc()
		m.bytes.Add(float64(bytes))
		return
	}
	m.probes.WithLabelValues("failure").Inc()
	m.failures.WithLabelValues(reason).Inc()
}

// Gatherer exposes the collector's Prometheus registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.prom.registry
}

// WriteTextfile writes the current metrics to path in the Prometheus text
// format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.prom.registry)
}
