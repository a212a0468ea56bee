package pipeline

import (
	"fmt"
	"time"
)

// State is a stage of the pipeline state machine.
type State int

const (
	StateIngest State = iota
	StateResolveRelated
	StateSearchConcerts
	StateAggregate
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIngest:
		return "ingest"
	case StateResolveRelated:
		return "resolve_related"
	case StateSearchConcerts:
		return "search_concerts"
	case StateAggregate:
		return "aggregate"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateIngest; st <= StateDone; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// next returns the state that follows s. Every stage advances regardless of
// its outcome, so a run always reaches StateDone.
func (s State) next() State {
	if s >= StateDone {
		return StateDone
	}
	return s + 1
}

// Status is the outcome of one stage.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// StageReport describes how one stage went. Partial marks a stage that
// produced less than it was asked for without failing outright.
type StageReport struct {
	State    State         `json:"state"`
	Status   Status        `json:"status"`
	Partial  bool          `json:"partial,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report lists the stage reports of a run in execution order.
type Report []StageReport

// Failed returns the stages that ended in error.
func (r Report) Failed() []State {
	var out []State
	for _, s := range r {
		if s.Status == StatusError {
			out = append(out, s.State)
		}
	}
	return out
}
