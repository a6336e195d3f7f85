package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/torosent/sockprobe/internal/config"
	"github.com/torosent/sockprobe/internal/metrics"
	"github.com/torosent/sockprobe/internal/output"
	"github.com/torosent/sockprobe/internal/probe"
	"github.com/torosent/sockprobe/internal/runner"
	"github.com/torosent/sockprobe/internal/tracing"
)

const tracingShutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sockprobe",
		Short:         "Probe a server's connection handling with raw HTTP/1.1 requests",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	serial := &cobra.Command{
		Use:   "serial",
		Short: "Send one request and print the raw response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := prepare(cmd, config.ModeSerial, stdout, stderr)
			if err != nil {
				return err
			}
			return sess.runSerial(cmd.Context())
		},
	}
	config.RegisterSerialFlags(serial)

	concurrent := &cobra.Command{
		Use:   "concurrent",
		Short: "Send requests from concurrent tasks and report each outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := prepare(cmd, config.ModeConcurrent, stdout, stderr)
			if err != nil {
				return err
			}
			return sess.runConcurrent(cmd.Context())
		},
	}
	config.RegisterConcurrentFlags(concurrent)

	root.AddCommand(serial, concurrent)
	return root
}

// session carries everything one subcommand invocation needs.
type session struct {
	cfg    *config.Config
	logger log.Interface
	runID  string
	stdout io.Writer
}

// prepare loads and validates the config of mode and builds the run logger.
func prepare(cmd *cobra.Command, mode config.Mode, stdout, stderr io.Writer) (*session, error) {
	cfg, err := config.NewLoader().Load(mode, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return nil, err
	}
	runID := ulid.Make().String()
	entry := logger.WithFields(log.Fields{"run_id": runID, "mode": string(mode)})
	for _, w := range cfg.Warnings() {
		entry.Warn(w)
	}
	return &session{cfg: cfg, logger: entry, runID: runID, stdout: stdout}, nil
}

func (s *session) runSerial(ctx context.Context) error {
	prober, shutdown, err := s.newProber(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	serial := runner.NewSerial(runner.SerialOptions{
		Target: s.cfg.Target(),
		Prober: prober,
		Logger: s.logger,
	})
	resp, err := serial.Run(ctx)
	if err != nil {
		return err
	}
	return output.PrintResponse(s.stdout, resp)
}

func (s *session) runConcurrent(ctx context.Context) error {
	prober, shutdown, err := s.newProber(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	collector := metrics.NewCollector(s.runID)
	c := runner.NewConcurrent(runner.ConcurrentOptions{
		Tasks:       s.cfg.Tasks,
		Target:      s.cfg.Target(),
		Prober:      prober,
		Reporter:    runner.Reporters(output.NewOutcomePrinter(s.stdout), collector),
		MaxInFlight: s.cfg.MaxInFlight,
		LaunchRate:  s.cfg.LaunchRate,
		Logger:      s.logger,
	})
	result, err := c.Run(ctx)
	if err != nil {
		return err
	}

	stats := collector.Stats(result.Duration)
	if err := output.WriteReport(s.stdout, s.cfg.Report, stats); err != nil {
		return err
	}
	if s.cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(s.cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
		s.logger.WithField("path", s.cfg.MetricsFile).Info("metrics written")
	}
	return nil
}

// newProber builds the request primitive with the configured middleware. The
// returned func flushes pending spans.
func (s *session) newProber(ctx context.Context) (runner.Prober, func(), error) {
	var prober runner.Prober = probe.NewClient(
		probe.NewRequest(s.cfg.HostHeader),
		probe.WithBufferSize(s.cfg.BufferSize),
	)

	provider, err := tracing.Init(ctx, s.cfg.Tracing, s.runID)
	if err != nil {
		return nil, nil, err
	}
	if provider.Enabled() {
		prober = tracing.WithTracing(prober, provider.Tracer())
	}
	if s.cfg.LogErrors {
		prober = runner.WithLogging(prober, &logFailureLogger{logger: s.logger})
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("tracing shutdown failed")
		}
	}
	return prober, shutdown, nil
}
