package probe

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Phase names the step of a probe.
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseSending    Phase = "sending"
	PhaseReceiving  Phase = "receiving"
)

// ConnectionError is the single failure kind reported by a probe.
type ConnectionError struct {
	Phase Phase
	Addr  string
	Err   error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: connection error", e.Phase, e.Addr)
	}
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying cause was a deadline expiry.
func (e *ConnectionError) Timeout() bool {
	if e == nil || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsTimeout reports whether err is a ConnectionError caused by a timeout.
func IsTimeout(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr) && connErr.Timeout()
}
