package runner_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/sockprobe/internal/probe"
	"github.com/torosent/sockprobe/internal/runner"
)

var testTarget = probe.Target{Host: "localhost", Port: 8080, Timeout: 2 * time.Second}

// collector records every reported outcome.
type collector struct {
	mu       sync.Mutex
	outcomes []probe.Outcome
}

func (c *collector) Report(out probe.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, out)
}

func (c *collector) byID(t *testing.T, tasks int) map[int]probe.Outcome {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outcomes) != tasks {
		t.Fatalf("got %d outcomes, want %d", len(c.outcomes), tasks)
	}
	seen := make(map[int]probe.Outcome, tasks)
	for _, out := range c.outcomes {
		if out.ID < 0 || out.ID >= tasks {
			t.Fatalf("outcome id %d out of range 0..%d", out.ID, tasks-1)
		}
		if _, dup := seen[out.ID]; dup {
			t.Fatalf("duplicate outcome for id %d", out.ID)
		}
		seen[out.ID] = out
	}
	return seen
}

func okProber(ctx context.Context, _ probe.Target) ([]byte, error) {
	return []byte("HTTP/1.1 200 OK\r\n\r\n"), nil
}

func TestConcurrentOneOutcomePerTask(t *testing.T) {
	for _, tasks := range []int{0, 1, 20, 100} {
		t.Run(strconv.Itoa(tasks), func(t *testing.T) {
			var calls int64
			rep := &collector{}
			c := runner.NewConcurrent(runner.ConcurrentOptions{
				Tasks:  tasks,
				Target: testTarget,
				Prober: runner.ProberFunc(func(ctx context.Context, target probe.Target) ([]byte, error) {
					atomic.AddInt64(&calls, 1)
					return okProber(ctx, target)
				}),
				Reporter: rep,
			})
			res, err := c.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Total != int64(tasks) || res.Successes != int64(tasks) || res.Failures != 0 {
				t.Fatalf("Result = %+v, want %d successes", res, tasks)
			}
			if calls != int64(tasks) {
				t.Fatalf("prober called %d times, want %d", calls, tasks)
			}
			for id, out := range rep.byID(t, tasks) {
				if !out.Success() {
					t.Errorf("task %d failed: %v", id, out.Err)
				}
			}
		})
	}
}

func TestConcurrentTaskIDInContext(t *testing.T) {
	rep := &collector{}
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:  10,
		Target: testTarget,
		Prober: runner.ProberFunc(func(ctx context.Context, _ probe.Target) ([]byte, error) {
			id, ok := runner.TaskIDFromContext(ctx)
			if !ok {
				return nil, errors.New("missing task id")
			}
			return []byte(strconv.Itoa(id)), nil
		}),
		Reporter: rep,
	})
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for id, out := range rep.byID(t, 10) {
		if string(out.Response) != strconv.Itoa(id) {
			t.Errorf("task %d saw id %q", id, out.Response)
		}
	}
}

// TestConcurrentFansOutAllTasks blocks every task until all of them are running.
func TestConcurrentFansOutAllTasks(t *testing.T) {
	const tasks = 25
	var running sync.WaitGroup
	running.Add(tasks)
	allStarted := make(chan struct{})
	go func() {
		running.Wait()
		close(allStarted)
	}()

	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:  tasks,
		Target: testTarget,
		Prober: runner.ProberFunc(func(ctx context.Context, _ probe.Target) ([]byte, error) {
			running.Done()
			select {
			case <-allStarted:
				return []byte("ok"), nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("siblings never started")
			}
		}),
	})
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Successes != tasks {
		t.Fatalf("Successes = %d, want %d (tasks did not run concurrently)", res.Successes, tasks)
	}
}

func TestConcurrentIsolatesFailures(t *testing.T) {
	const tasks = 12
	const badID = 7
	rep := &collector{}
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:  tasks,
		Target: testTarget,
		Prober: runner.ProberFunc(func(ctx context.Context, target probe.Target) ([]byte, error) {
			if id, _ := runner.TaskIDFromContext(ctx); id == badID {
				return nil, &probe.ConnectionError{Phase: probe.PhaseConnecting, Addr: target.Address(), Err: errors.New("connection reset")}
			}
			return okProber(ctx, target)
		}),
		Reporter: rep,
	})
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failures != 1 || res.Successes != tasks-1 {
		t.Fatalf("Result = %+v, want 1 failure and %d successes", res, tasks-1)
	}
	for id, out := range rep.byID(t, tasks) {
		if (id == badID) == out.Success() {
			t.Errorf("task %d success = %v", id, out.Success())
		}
	}
}

func TestConcurrentRecoversPanics(t *testing.T) {
	rep := &collector{}
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:  5,
		Target: testTarget,
		Prober: runner.ProberFunc(func(ctx context.Context, target probe.Target) ([]byte, error) {
			if id, _ := runner.TaskIDFromContext(ctx); id == 2 {
				panic("boom")
			}
			return okProber(ctx, target)
		}),
		Reporter: rep,
	})
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failures != 1 {
		t.Fatalf("Failures = %d, want 1", res.Failures)
	}
	out := rep.byID(t, 5)[2]
	var panicErr *runner.TaskPanicError
	if !errors.As(out.Err, &panicErr) || panicErr.ID != 2 {
		t.Fatalf("task 2 error = %v, want *TaskPanicError", out.Err)
	}
}

func TestConcurrentSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  runner.ConcurrentOptions
	}{
		{name: "negative tasks", opt: runner.ConcurrentOptions{Tasks: -1, Target: testTarget, Prober: runner.ProberFunc(okProber)}},
		{name: "missing prober", opt: runner.ConcurrentOptions{Tasks: 3, Target: testTarget}},
		{name: "invalid port", opt: runner.ConcurrentOptions{Tasks: 3, Target: probe.Target{Host: "localhost"}, Prober: runner.ProberFunc(okProber)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reported := false
			tt.opt.Reporter = runner.ReporterFunc(func(probe.Outcome) { reported = true })
			_, err := runner.NewConcurrent(tt.opt).Run(context.Background())
			var setupErr *runner.SetupError
			if !errors.As(err, &setupErr) {
				t.Fatalf("Run() error = %v, want *SetupError", err)
			}
			if reported {
				t.Fatal("outcome reported despite setup failure")
			}
		})
	}
}

func TestConcurrentMaxInFlight(t *testing.T) {
	var current, peak int64
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:       20,
		MaxInFlight: 3,
		Target:      testTarget,
		Prober: runner.ProberFunc(func(ctx context.Context, target probe.Target) ([]byte, error) {
			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			return okProber(ctx, target)
		}),
	})
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Successes != 20 {
		t.Fatalf("Successes = %d, want 20", res.Successes)
	}
	if peak > 3 {
		t.Fatalf("peak in-flight = %d, want <= 3", peak)
	}
}

func TestConcurrentLaunchRate(t *testing.T) {
	var limiterRPS int
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:      5,
		LaunchRate: 100,
		Target:     testTarget,
		Prober:     runner.ProberFunc(okProber),
		LimiterFactory: func(rps int) *rate.Limiter {
			limiterRPS = rps
			return rate.NewLimiter(rate.Limit(rps), 1)
		},
	})
	start := time.Now()
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if limiterRPS != 100 {
		t.Fatalf("limiter built with %d rps, want 100", limiterRPS)
	}
	if res.Successes != 5 {
		t.Fatalf("Successes = %d, want 5", res.Successes)
	}
	// 5 launches at 100/s with burst 1 need at least ~40ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("launches not paced, took %s", elapsed)
	}
}

func TestConcurrentCanceledContextStillReportsEveryTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := &collector{}
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:      8,
		LaunchRate: 1,
		Target:     testTarget,
		Prober: runner.ProberFunc(func(ctx context.Context, target probe.Target) ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, &probe.ConnectionError{Phase: probe.PhaseConnecting, Addr: target.Address(), Err: err}
			}
			return okProber(ctx, target)
		}),
		Reporter: rep,
	})
	res, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failures != 8 {
		t.Fatalf("Failures = %d, want 8", res.Failures)
	}
	rep.byID(t, 8)
}

// TestConcurrentUnreachableTargetBoundedByTimeout runs real probes against a
// listener that accepts but never answers.
func TestConcurrentUnreachableTargetBoundedByTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	var conns sync.WaitGroup
	release := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns.Add(1)
			go func() {
				defer conns.Done()
				defer conn.Close()
				<-release
			}()
		}
	}()
	t.Cleanup(func() {
		close(release)
		_ = ln.Close()
		conns.Wait()
	})
	port := ln.Addr().(*net.TCPAddr).Port

	const tasks = 10
	timeout := 200 * time.Millisecond
	rep := &collector{}
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:    tasks,
		Target:   probe.Target{Host: "127.0.0.1", Port: port, Timeout: timeout},
		Prober:   probe.NewClient(probe.DefaultRequest()),
		Reporter: rep,
	})
	start := time.Now()
	res, err := c.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failures != tasks {
		t.Fatalf("Failures = %d, want %d", res.Failures, tasks)
	}
	// Serial execution would need tasks*timeout.
	if elapsed > time.Duration(tasks/2)*timeout {
		t.Fatalf("run took %s, tasks did not time out in parallel", elapsed)
	}
	for id, out := range rep.byID(t, tasks) {
		if !probe.IsTimeout(out.Err) {
			t.Errorf("task %d error = %v, want timeout", id, out.Err)
		}
	}
}
