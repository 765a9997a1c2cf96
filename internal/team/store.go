package team

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the requested team does not exist.
var ErrNotFound = errors.New("team not found")

// ErrDuplicateID is returned by Add when a team with the same ID already exists.
var ErrDuplicateID = errors.New("team with that ID already exists")

// Store is a read-only source of the team roster.
//
// Roster order is significant: [Resolve] gives earlier teams precedence, so
// implementations must return teams in a stable order.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// List returns the full roster in resolution order.
	List(ctx context.Context) ([]Team, error)

	// Get retrieves a team by ID.
	// Returns [ErrNotFound] when no team with that ID exists.
	Get(ctx context.Context, id string) (Team, error)
}
