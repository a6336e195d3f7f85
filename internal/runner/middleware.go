package runner

import (
	"context"

	"github.com/torosent/sockprobe/internal/probe"
)

// FailureLogger logs failed probes.
type FailureLogger interface {
	LogFailure(ctx context.Context, target probe.Target, err error)
}

// loggingProber wraps a Prober with failure logging.
type loggingProber struct {
	inner  Prober
	logger FailureLogger
}

// WithLogging wraps a Prober to log failures.
func WithLogging(p Prober, logger FailureLogger) Prober {
	if logger == nil {
		return p
	}
	return &loggingProber{
		inner:  p,
		logger: logger,
	}
}

func (l *loggingProber) Probe(ctx context.Context, target probe.Target) ([]byte, error) {
	resp, err := l.inner.Probe(ctx, target)
	if err != nil && l.logger != nil {
		l.logger.LogFailure(ctx, target, err)
	}
	return resp, err
}
