package main

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"github.com/torosent/sockprobe/internal/metrics"
	"github.com/torosent/sockprobe/internal/probe"
	"github.com/torosent/sockprobe/internal/runner"
)

func newLogger(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return &log.Logger{Handler: cli.New(w), Level: lvl}, nil
}

type logFailureLogger struct {
	logger log.Interface
}

func (l *logFailureLogger) LogFailure(ctx context.Context, target probe.Target, err error) {
	fields := log.Fields{
		"addr":   target.Address(),
		"reason": metrics.FailureReason(err),
	}
	if id, ok := runner.TaskIDFromContext(ctx); ok {
		fields["task"] = id
	}
	l.logger.WithFields(fields).WithError(err).Warn("probe failed")
}
