package state

import (
	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
)

// Phase is a step of a node's run.
type Phase int

const (
	Idle Phase = iota
	Sending
	Listening
	Deciding
	Done
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Listening:
		return "listening"
	case Deciding:
		return "deciding"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

var ErrInvalidTransition = errors.New("state: invalid phase transition")

// transitions lists the allowed successors of each phase per role.
// Aborted is reachable from every phase but Done and is handled separately.
var transitions = map[config.Role]map[Phase]Phase{
	config.Master: {
		Idle:      Sending,
		Sending:   Listening,
		Listening: Deciding,
		Deciding:  Done,
	},
	config.Relay: {
		Idle:      Listening,
		Listening: Done,
	},
}

// State records the phases a node went through during one run.
type State struct {
	id      string
	role    config.Role
	history []Phase
	err     error
}

func NewState(id string, role config.Role) *State {
	return &State{
		id:      id,
		role:    role,
		history: []Phase{Idle},
	}
}

func (s *State) ID() string {
	return s.id
}

func (s *State) Role() config.Role {
	return s.role
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return s.history[len(s.history)-1]
}

// History returns a copy of every phase entered, in order.
func (s *State) History() []Phase {
	h := make([]Phase, len(s.history))
	copy(h, s.history)
	return h
}

// Err returns the error that aborted the run, if any.
func (s *State) Err() error {
	return s.err
}

func (s *State) Completed() bool {
	return s.Phase() == Done
}

func (s *State) Aborted() bool {
	return s.Phase() == Aborted
}

func (s *State) transition(to Phase) error {
	from := s.Phase()
	if next, ok := transitions[s.role][from]; !ok || next != to {
		return errors.WithMessagef(ErrInvalidTransition, "%s: %s -> %s", s.role, from, to)
	}
	s.history = append(s.history, to)
	return nil
}

func (s *State) abort(err error) error {
	if from := s.Phase(); from == Done || from == Aborted {
		return errors.WithMessagef(ErrInvalidTransition, "%s: %s -> %s", s.role, from, Aborted)
	}
	s.history = append(s.history, Aborted)
	s.err = err
	return nil
}
