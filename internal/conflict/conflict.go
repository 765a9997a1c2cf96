// Package conflict detects overlapping bookings for the same team.
//
// Both sides of every comparison go through [types.Schedule.Range], so legacy
// date+time records and unified instant records compare identically. Ranges
// are half-open: a booking that ends exactly when another starts does not
// conflict with it.
package conflict

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/pkg/types"
)

// Result is the outcome of one conflict check. It is recomputed on every
// call and never persisted.
type Result struct {
	HasConflict         bool                    `json:"has_conflict"`
	ConflictingBookings []types.ExistingBooking `json:"conflicting_bookings"`
}

// Option is a functional option for configuring a [Detector].
type Option func(*Detector)

// WithLocation sets the zone legacy wall-clock strings are read in and
// message times are printed in. Default: [time.Local].
func WithLocation(loc *time.Location) Option {
	return func(d *Detector) {
		if loc != nil {
			d.loc = loc
		}
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Detector) {
		d.metrics = m
	}
}

// Detector checks candidates against a caller-supplied snapshot of existing
// bookings. It takes no locks and does not guarantee freshness against
// concurrent writes; callers re-fetch before committing.
type Detector struct {
	loc     *time.Location
	metrics *observe.Metrics
}

// New returns a Detector configured with opts.
func New(opts ...Option) *Detector {
	d := &Detector{loc: time.Local}
	for _, o := range opts {
		o(d)
	}
	if d.metrics == nil {
		d.metrics = observe.DefaultMetrics()
	}
	return d
}

// Location returns the zone the detector resolves legacy times in.
func (d *Detector) Location() *time.Location {
	return d.loc
}

// Check returns every existing booking of the candidate's team that overlaps
// it, in input order. Bookings sharing the candidate's non-empty ID are
// skipped so an edited booking never conflicts with itself. Records whose
// times cannot be resolved are skipped; an unresolvable candidate conflicts
// with nothing.
func (d *Detector) Check(ctx context.Context, candidate types.BookingCandidate, existing []types.ExistingBooking) Result {
	res := Result{ConflictingBookings: []types.ExistingBooking{}}
	ctx, span := observe.StartSpan(ctx, observe.SpanConflict, observe.KeyTeamID.String(candidate.TeamID))
	defer func() {
		span.SetAttributes(observe.KeyConflicts.Int(len(res.ConflictingBookings)))
		span.End()
	}()

	cr, err := candidate.Range(d.loc)
	if err != nil {
		observe.Logger(ctx).Debug("conflict: candidate has no usable time range", "err", err)
		d.metrics.RecordConflictCheck(ctx, false)
		return res
	}

	for _, b := range existing {
		if b.TeamID != candidate.TeamID {
			continue
		}
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		br, err := b.Range(d.loc)
		if err != nil {
			observe.Logger(ctx).Warn("conflict: skipping booking with invalid time", "booking_id", b.ID, "err", err)
			continue
		}
		if cr.Overlaps(br) {
			res.ConflictingBookings = append(res.ConflictingBookings, b)
		}
	}

	res.HasConflict = len(res.ConflictingBookings) > 0
	d.metrics.RecordConflictCheck(ctx, res.HasConflict)
	return res
}

// FormatMessage summarises conflicts for display, e.g.
//
//	This booking conflicts with: "Standup" (9:00 AM - 9:30 AM), "Offsite" (Whole Day)
//
// It returns the empty string when there are no conflicts.
func (d *Detector) FormatMessage(conflicts []types.ExistingBooking) string {
	return FormatMessage(conflicts, d.loc)
}

// FormatMessage is [Detector.FormatMessage] with an explicit location.
func FormatMessage(conflicts []types.ExistingBooking, loc *time.Location) string {
	if len(conflicts) == 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("%q (%s)", c.EventName, timeLabel(c, loc)))
	}
	return "This booking conflicts with: " + strings.Join(parts, ", ")
}

func timeLabel(b types.ExistingBooking, loc *time.Location) string {
	if b.IsWholeDay {
		return "Whole Day"
	}
	r, err := b.Range(loc)
	if err != nil {
		return "Unknown time"
	}
	return r.Start.In(loc).Format(types.Clock12Layout) + " - " + r.End.In(loc).Format(types.Clock12Layout)
}
