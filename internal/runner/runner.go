package runner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/remeh/sizedwaitgroup"

	"github.com/torosent/sockprobe/internal/probe"
)

// Result captures execution summary.
type Result struct {
	Total     int64
	Successes int64
	Failures  int64
	Duration  time.Duration
}

// Concurrent fans a fixed number of probes out to independent goroutines and
// waits for all of them.
type Concurrent struct {
	opt ConcurrentOptions
}

func NewConcurrent(opt ConcurrentOptions) *Concurrent {
	opt.normalize()
	return &Concurrent{opt: opt}
}

// Run launches every task, reports each outcome as soon as it exists and returns
// once all tasks are done. Task failures never abort siblings; the only error
// returned is a *SetupError, in which case nothing was launched.
func (c *Concurrent) Run(ctx context.Context) (Result, error) {
	if err := c.opt.validate(); err != nil {
		return Result{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	var successes, failures int64

	logger := c.opt.Logger.WithFields(log.Fields{
		"addr":  c.opt.Target.Address(),
		"tasks": c.opt.Tasks,
	})
	logger.Debug("launching tasks")

	limiter := c.opt.LimiterFactory(c.opt.LaunchRate)
	paced := c.opt.LaunchRate > 0
	swg := sizedwaitgroup.New(c.opt.MaxInFlight)

	for id := 0; id < c.opt.Tasks; id++ {
		if paced {
			// Once the context is done the remaining tasks launch unpaced and
			// fail fast, so every id still reports.
			if err := limiter.Wait(ctx); err != nil {
				paced = false
			}
		}
		swg.Add()
		go func(id int) {
			defer swg.Done()
			out := c.runTask(ctx, id)
			if out.Success() {
				atomic.AddInt64(&successes, 1)
			} else {
				atomic.AddInt64(&failures, 1)
			}
			c.opt.Reporter.Report(out)
		}(id)
	}
	swg.Wait()

	res := Result{
		Total:     int64(c.opt.Tasks),
		Successes: atomic.LoadInt64(&successes),
		Failures:  atomic.LoadInt64(&failures),
		Duration:  time.Since(start),
	}
	logger.WithFields(log.Fields{
		"successes": res.Successes,
		"failures":  res.Failures,
		"duration":  res.Duration,
	}).Debug("all tasks finished")
	return res, nil
}

func (c *Concurrent) runTask(ctx context.Context, id int) (out probe.Outcome) {
	out = probe.Outcome{ID: id, Started: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			out.Response = nil
			out.Err = &TaskPanicError{ID: id, Value: r}
		}
		out.Latency = time.Since(out.Started)
	}()
	out.Response, out.Err = c.opt.Prober.Probe(WithTaskID(ctx, id), c.opt.Target)
	return out
}

type taskIDKey struct{}

// WithTaskID tags ctx with the id of the task running in it.
func WithTaskID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskIDFromContext returns the task id set by the Concurrent runner.
func TaskIDFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(taskIDKey{}).(int)
	return id, ok
}
