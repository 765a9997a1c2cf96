package team

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory [Store] that keeps insertion order.
// The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	teams []Team
}

// NewMemStore returns a MemStore holding teams in the given order.
func NewMemStore(teams ...Team) *MemStore {
	return &MemStore{teams: slices.Clone(teams)}
}

// List implements [Store.List]. The returned slice is a copy.
func (s *MemStore) List(_ context.Context) ([]Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.teams), nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, id string) (Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.teams[i], nil
	}
	return Team{}, ErrNotFound
}

// Add appends t to the roster, generating an ID when t has none.
// Returns [ErrDuplicateID] if a team with the same ID exists.
func (s *MemStore) Add(t Team) (Team, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := Validate(t); err != nil {
		return Team{}, fmt.Errorf("team: add: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(t.ID) >= 0 {
		return Team{}, ErrDuplicateID
	}
	s.teams = append(s.teams, t)
	return t, nil
}

// Remove deletes a team by ID.
// Returns [ErrNotFound] when no team with that ID exists.
func (s *MemStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.teams = slices.Delete(s.teams, i, i+1)
	return nil
}

// Replace swaps the whole roster, as done on configuration reload.
func (s *MemStore) Replace(teams []Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = slices.Clone(teams)
}

func (s *MemStore) index(id string) int {
	return slices.IndexFunc(s.teams, func(t Team) bool { return t.ID == id })
}
