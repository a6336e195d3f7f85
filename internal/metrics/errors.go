package metrics

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/torosent/sockprobe/internal/probe"
)

// Failure reasons used as report keys and metric labels.
const (
	ReasonTimeout    = "timeout"
	ReasonRefused    = "refused"
	ReasonReset      = "reset"
	ReasonResolution = "resolution"
	ReasonCanceled   = "canceled"
	ReasonConnect    = "connect error"
	ReasonSend       = "send error"
	ReasonReceive    = "receive error"
	ReasonOther      = "other"
)

// FailureReason buckets a probe error for reporting. It returns "" for nil.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return ReasonCanceled
	}
	if probe.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ReasonRefused
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return ReasonReset
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonResolution
	}

	var connErr *probe.ConnectionError
	if !errors.As(err, &connErr) {
		return ReasonOther
	}
	switch connErr.Phase {
	case probe.PhaseConnecting:
		return ReasonConnect
	case probe.PhaseSending:
		return ReasonSend
	case probe.PhaseReceiving:
		return ReasonReceive
	default:
		return ReasonOther
	}
}
