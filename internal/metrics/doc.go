// Package metrics aggregates probe outcomes for the sockprobe summary report.
//
// A [Collector] implements the runner's Reporter interface and can be passed
// straight to a concurrent run, usually next to the console printer:
//
//	collector := metrics.NewCollector(runID)
//	result, err := runner.NewConcurrent(runner.ConcurrentOptions{
//		// ...
//		Reporter: runner.Reporters(printer, collector),
//	}).Run(ctx)
//	stats := collector.Stats(result.Duration)
//
// Latencies are tracked in an HDR histogram from 1µs to 60s. Failures are
// grouped by [FailureReason]. The same observations feed a Prometheus registry
// that [Collector.WriteTextfile] writes in the node_exporter textfile format.
//
// The Collector is safe for concurrent use.
package metrics
