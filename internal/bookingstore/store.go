// Package bookingstore supplies the existing-booking snapshots the conflict
// detector checks against, and the team roster the intake parser resolves
// against.
//
// The stores are read-only: booking persistence belongs to the booking
// service that owns the database. Callers fetch a fresh snapshot before
// every check.
package bookingstore

import (
	"context"

	"github.com/MrWong99/voxbook/pkg/types"
)

// Store lists existing bookings.
type Store interface {
	// ListByTeam returns every booking of teamID. The order is
	// implementation-defined; the conflict detector preserves it.
	ListByTeam(ctx context.Context, teamID string) ([]types.ExistingBooking, error)
}
