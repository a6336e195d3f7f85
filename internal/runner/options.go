package runner

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"golang.org/x/time/rate"

	"github.com/torosent/sockprobe/internal/probe"
)

// Prober abstracts the request primitive executed by each task.
// Implementations return a *probe.ConnectionError for failed probes.
type Prober interface {
	Probe(ctx context.Context, target probe.Target) ([]byte, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, target probe.Target) ([]byte, error)

func (f ProberFunc) Probe(ctx context.Context, target probe.Target) ([]byte, error) {
	return f(ctx, target)
}

// Reporter consumes outcomes as tasks finish. Report is called from task
// goroutines and must be safe for concurrent use.
type Reporter interface {
	Report(out probe.Outcome)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(out probe.Outcome)

func (f ReporterFunc) Report(out probe.Outcome) {
	f(out)
}

// Reporters fans a single outcome out to several reporters in order.
func Reporters(rs ...Reporter) Reporter {
	return ReporterFunc(func(out probe.Outcome) {
		for _, r := range rs {
			if r != nil {
				r.Report(out)
			}
		}
	})
}

// ConcurrentOptions configure the Concurrent runner.
type ConcurrentOptions struct {
	Tasks          int                         // number of tasks, ids 0..Tasks-1
	Target         probe.Target                // shared target; Timeout applies per task
	Prober         Prober                      // request primitive (required)
	Reporter       Reporter                    // receives every outcome; nil discards
	MaxInFlight    int                         // cap on running tasks (0 means all at once)
	LaunchRate     int                         // task launches per second (0 means unpaced)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Logger         log.Interface
}

func (o *ConcurrentOptions) normalize() {
	if o.MaxInFlight <= 0 || o.MaxInFlight > o.Tasks {
		o.MaxInFlight = o.Tasks
	}
	if o.MaxInFlight < 1 {
		o.MaxInFlight = 1
	}
	if o.LaunchRate < 0 {
		o.LaunchRate = 0
	}
	if o.Reporter == nil {
		o.Reporter = ReporterFunc(func(probe.Outcome) {})
	}
	if o.Logger == nil {
		o.Logger = log.Log
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func (o ConcurrentOptions) validate() error {
	var issues []string
	if o.Tasks < 0 {
		issues = append(issues, fmt.Sprintf("task count must be >= 0, got %d", o.Tasks))
	}
	if o.Prober == nil {
		issues = append(issues, "prober is required")
	}
	if err := o.Target.Validate(); err != nil {
		issues = append(issues, "target: "+err.Error())
	}
	if len(issues) > 0 {
		return &SetupError{Issues: issues}
	}
	return nil
}

// SerialOptions configure the Serial runner.
type SerialOptions struct {
	Target probe.Target
	Prober Prober // request primitive (required)
	Logger log.Interface
}

func (o *SerialOptions) normalize() {
	if o.Logger == nil {
		o.Logger = log.Log
	}
}

func (o SerialOptions) validate() error {
	var issues []string
	if o.Prober == nil {
		issues = append(issues, "prober is required")
	}
	if err := o.Target.Validate(); err != nil {
		issues = append(issues, "target: "+err.Error())
	}
	if len(issues) > 0 {
		return &SetupError{Issues: issues}
	}
	return nil
}
