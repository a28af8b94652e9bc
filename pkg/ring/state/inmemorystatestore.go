package state

import (
	"errors"
	"sync"
)

var ErrStateNotFound = errors.New("state: state not found")

type InMemoryStateStore struct {
	lock  sync.RWMutex
	stats map[string]*State
}

func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{
		stats: make(map[string]*State),
	}
}

func (s *InMemoryStateStore) Import(ID string, stat *State) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.stats[ID] = stat

	return nil
}

func (s *InMemoryStateStore) Get(ID string) (*State, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stat, ok := s.stats[ID]
	if !ok {
		return nil, ErrStateNotFound
	}

	return stat, nil
}

// Update applies fn to the stored state under the store's lock.
func (s *InMemoryStateStore) Update(ID string, fn func(*State) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	stat, ok := s.stats[ID]
	if !ok {
		return ErrStateNotFound
	}
	return fn(stat)
}
