package probe

import "time"

// Outcome is the result of a single probe performed by task ID. Exactly one of
// Response or Err is meaningful: a nil Err marks a success.
type Outcome struct {
	ID       int
	Response []byte
	Err      error
	Started  time.Time
	Latency  time.Duration
}

// Success reports whether the probe completed without error.
func (o Outcome) Success() bool {
	return o.Err == nil
}
