package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/apex/log"

	"github.com/torosent/sockprobe/internal/probe"
)

// State is the lifecycle position of a Serial run.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateSending    State = "sending"
	StateReceiving  State = "receiving"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Serial performs exactly one probe. A Serial is single use.
type Serial struct {
	opt SerialOptions

	mu    sync.Mutex
	state State
}

func NewSerial(opt SerialOptions) *Serial {
	opt.normalize()
	return &Serial{opt: opt, state: StateIdle}
}

// State returns the current state.
func (s *Serial) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Serial) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		s.state = st
	}
}

// Run probes the target once and returns the raw response. Errors are returned
// unchanged; there is no retry.
func (s *Serial) Run(ctx context.Context) ([]byte, error) {
	if err := s.opt.validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("serial runner already used (state %s)", st)
	}
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx = probe.WithObserver(ctx, func(p probe.Phase) {
		switch p {
		case probe.PhaseConnecting:
			s.setState(StateConnecting)
		case probe.PhaseSending:
			s.setState(StateSending)
		case probe.PhaseReceiving:
			s.setState(StateReceiving)
		}
	})
	// Probers that don't report phases still leave Idle.
	s.setState(StateConnecting)

	resp, err := s.opt.Prober.Probe(ctx, s.opt.Target)
	if err != nil {
		s.setState(StateFailed)
		s.opt.Logger.WithFields(log.Fields{"addr": s.opt.Target.Address()}).WithError(err).Debug("serial probe failed")
		return nil, err
	}
	s.setState(StateDone)
	s.opt.Logger.WithFields(log.Fields{
		"addr":  s.opt.Target.Address(),
		"bytes": len(resp),
	}).Debug("serial probe done")
	return resp, nil
}
