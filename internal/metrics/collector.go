package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/sockprobe/internal/probe"
)

// Collector records per-probe metrics in a thread-safe manner.
type Collector struct {
	mu             sync.Mutex
	runID          string
	hist           *hdrhistogram.Histogram
	successes      int64
	failures       int64
	minLatency     time.Duration
	maxLatency     time.Duration
	sumLatency     time.Duration
	bytesReceived  int64
	failureReasons map[string]int64
	prom           *promMetrics
}

// Stats represents aggregated metrics.
type Stats struct {
	RunID         string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Total         int64         `json:"total" yaml:"total"`
	Successes     int64         `json:"successes" yaml:"successes"`
	Failures      int64         `json:"failures" yaml:"failures"`
	BytesReceived int64         `json:"bytes_received" yaml:"bytes_received"`
	MinLatency    time.Duration `json:"-" yaml:"-"`
	MaxLatency    time.Duration `json:"-" yaml:"-"`
	MeanLatency   time.Duration `json:"-" yaml:"-"`
	P50Latency    time.Duration `json:"-" yaml:"-"`
	P90Latency    time.Duration `json:"-" yaml:"-"`
	P99Latency    time.Duration `json:"-" yaml:"-"`
	Duration      time.Duration `json:"-" yaml:"-"`
	ProbesPerSec  float64       `json:"probes_per_sec" yaml:"probes_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64          `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs  float64          `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanLatencyMs float64          `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	P50LatencyMs  float64          `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P90LatencyMs  float64          `json:"p90_latency_ms" yaml:"p90_latency_ms"`
	P99LatencyMs  float64          `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	DurationMs    float64          `json:"duration_ms" yaml:"duration_ms"`
	Failed        map[string]int64 `json:"failure_reasons,omitempty" yaml:"failure_reasons,omitempty"`
}

func NewCollector(runID string) *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		runID:          runID,
		hist:           h,
		failureReasons: make(map[string]int64),
		prom:           newPromMetrics(runID),
	}
}

// Report records one outcome. It satisfies runner.Reporter.
func (c *Collector) Report(out probe.Outcome) {
	c.RecordProbe(out.Latency, len(out.Response), out.Err)
}

// RecordProbe records a single probe's latency, response size and error state.
func (c *Collector) RecordProbe(latency time.Duration, bytes int, err error) {
	reason := FailureReason(err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if err == nil {
		c.successes++
		c.bytesReceived += int64(bytes)
	} else {
		c.failures++
		c.failureReasons[reason]++
	}
	c.prom.observe(latency, bytes, reason, err == nil)
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		RunID:         c.runID,
		Total:         total,
		Successes:     c.successes,
		Failures:      c.failures,
		BytesReceived: c.bytesReceived,
		MinLatency:    c.minLatency,
		MaxLatency:    c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMs(stats.MinLatency)
	stats.MaxLatencyMs = toMs(stats.MaxLatency)
	stats.MeanLatencyMs = toMs(stats.MeanLatency)
	stats.P50LatencyMs = toMs(stats.P50Latency)
	stats.P90LatencyMs = toMs(stats.P90Latency)
	stats.P99LatencyMs = toMs(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMs(elapsed)
	if elapsed > 0 && total > 0 {
		stats.ProbesPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.failureReasons) > 0 {
		stats.Failed = make(map[string]int64, len(c.failureReasons))
		for k, v := range c.failureReasons {
			stats.Failed[k] = v
		}
	}

	return stats
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
