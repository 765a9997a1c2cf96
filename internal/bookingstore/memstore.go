package bookingstore

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/voxbook/pkg/types"
)

// MemStore is an in-memory [Store] for tests and offline use. It keeps
// bookings in insertion order.
type MemStore struct {
	mu       sync.RWMutex
	bookings []types.ExistingBooking
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns a MemStore holding bookings.
func NewMemStore(bookings ...types.ExistingBooking) *MemStore {
	return &MemStore{bookings: slices.Clone(bookings)}
}

// Add appends b.
func (s *MemStore) Add(b types.ExistingBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, b)
}

// Replace swaps the whole snapshot.
func (s *MemStore) Replace(bookings []types.ExistingBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = slices.Clone(bookings)
}

// ListByTeam implements [Store]. Bookings are returned in insertion order.
func (s *MemStore) ListByTeam(_ context.Context, teamID string) ([]types.ExistingBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []types.ExistingBooking{}
	for _, b := range s.bookings {
		if b.TeamID == teamID {
			out = append(out, b)
		}
	}
	return out, nil
}
