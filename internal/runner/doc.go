// Package runner provides the probe execution harness for sockprobe.
//
// Two runners share the same request primitive, expressed as the [Prober]
// interface:
//
//	type Prober interface {
//		Probe(ctx context.Context, target probe.Target) ([]byte, error)
//	}
//
// # Serial
//
// [Serial] performs exactly one probe and hands back the raw response. Errors
// propagate to the caller untouched:
//
//	s := runner.NewSerial(runner.SerialOptions{Target: target, Prober: client})
//	resp, err := s.Run(ctx)
//
// # Concurrent
//
// [Concurrent] launches a fixed number of tasks, each in its own goroutine and
// tagged with an id from 0 to Tasks-1 (see [TaskIDFromContext]). Every task
// produces exactly one [probe.Outcome], which is passed to the configured
// [Reporter] as soon as it exists. Run returns after all tasks are done:
//
//	c := runner.NewConcurrent(runner.ConcurrentOptions{
//		Tasks:    20,
//		Target:   probe.Target{Host: "localhost", Port: 8080, Timeout: 2 * time.Second},
//		Prober:   client,
//		Reporter: printer,
//	})
//	result, err := c.Run(ctx)
//
// A failing or panicking task never cancels its siblings. The only error Run
// returns is a [*SetupError], before any task starts.
//
// By default all tasks run at once. MaxInFlight caps concurrent tasks and
// LaunchRate paces launches; neither changes the one-outcome-per-task guarantee.
//
// # Middleware
//
// [WithLogging] wraps a Prober to log every failed probe.
package runner
