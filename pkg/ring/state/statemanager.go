package state

import (
	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
)

// StateStore keeps node states by run ID.
type StateStore interface {
	Import(ID string, stat *State) error
	Get(ID string) (*State, error)
	Update(ID string, fn func(*State) error) error
}

type StateManager struct {
	store StateStore
}

func NewStateManager(store StateStore) *StateManager {
	return &StateManager{
		store: store,
	}
}

// NewState registers a fresh run in the Idle phase.
func (mgr *StateManager) NewState(ID string, role config.Role) error {
	return mgr.store.Import(ID, NewState(ID, role))
}

// Transition moves the run to phase to, rejecting moves the role does not allow.
func (mgr *StateManager) Transition(ID string, to Phase) error {
	return mgr.store.Update(ID, func(s *State) error {
		return s.transition(to)
	})
}

// Abort marks the run as failed with err.
func (mgr *StateManager) Abort(ID string, err error) error {
	return mgr.store.Update(ID, func(s *State) error {
		return s.abort(err)
	})
}

// Get returns a snapshot of the run's state.
func (mgr *StateManager) Get(ID string) (*State, error) {
	var snapshot *State
	err := mgr.store.Update(ID, func(s *State) error {
		snapshot = &State{id: s.id, role: s.role, history: s.History(), err: s.err}
		return nil
	})
	return snapshot, err
}
