// Package types defines the shared booking types used across all voxbook
// packages.
//
// These types form the lingua franca between the intake pipeline, the
// conflict detector, the voice session and the HTTP surfaces. Each package
// defines its own domain types, but cross-cutting data structures live here
// to avoid circular imports.
package types

import (
	"errors"
	"fmt"
	"time"
)

// ParsedCommand is the structured result of processing a single utterance.
// It is created once per processing cycle and treated as immutable after
// creation; callers use it to pre-fill a booking draft.
type ParsedCommand struct {
	// EventName is a best-effort title derived from the raw transcript. It
	// may still contain date or time words.
	EventName string `json:"event_name"`

	// Start is the resolved start instant. Nil means no date or time was
	// detected and the caller should ask the user.
	Start *time.Time `json:"start,omitempty"`

	// End is the resolved end instant. Nil only when Start is nil.
	End *time.Time `json:"end,omitempty"`

	// TeamID is the ID of the team matched in the transcript. Empty when no
	// team was recognised.
	TeamID string `json:"team_id,omitempty"`

	// IsAllDay is set when a day duration forced the event to span whole days.
	IsAllDay bool `json:"is_all_day"`

	// OriginalTranscript is the text as produced by speech recognition.
	OriginalTranscript string `json:"original_transcript"`

	// NormalizedTranscript is the canonical English-like form the date
	// parser operated on.
	NormalizedTranscript string `json:"normalized_transcript"`
}

// HasTime reports whether a date/time was detected.
func (c *ParsedCommand) HasTime() bool {
	return c != nil && c.Start != nil
}

// WithTeam returns a copy of c with the team ID replaced.
func (c ParsedCommand) WithTeam(teamID string) ParsedCommand {
	c.TeamID = teamID
	return c
}

// TimeRange is a resolved, comparable [Start, End) interval.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether r and o share more than a boundary instant.
// Touching endpoints do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

// ErrInvalidTimeRef is returned by [TimeRef.Resolve] when a booking's time
// fields cannot be turned into a range.
var ErrInvalidTimeRef = errors.New("types: invalid booking time")

// TimeRef is the tagged union over the two stored time representations.
// The concrete types are [UnifiedTimeRef] and [LegacyTimeRef].
type TimeRef interface {
	// Resolve converts the reference into a comparable range. Wall-clock
	// strings are interpreted in loc.
	Resolve(loc *time.Location) (TimeRange, error)

	isTimeRef()
}

// UnifiedTimeRef is the current representation: a start/end instant pair.
type UnifiedTimeRef struct {
	Start time.Time
	End   time.Time
}

func (UnifiedTimeRef) isTimeRef() {}

// Resolve implements [TimeRef].
func (u UnifiedTimeRef) Resolve(_ *time.Location) (TimeRange, error) {
	if u.End.Before(u.Start) {
		return TimeRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidTimeRef, u.End, u.Start)
	}
	return TimeRange{Start: u.Start, End: u.End}, nil
}

// LegacyTimeRef is the historical representation: a calendar date plus two
// wall-clock strings on that date.
type LegacyTimeRef struct {
	// Date is formatted YYYY-MM-DD.
	Date string

	// StartTime and EndTime are HH:MM or HH:MM:SS.
	StartTime string
	EndTime   string
}

func (LegacyTimeRef) isTimeRef() {}

// Resolve implements [TimeRef].
func (l LegacyTimeRef) Resolve(loc *time.Location) (TimeRange, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := parseDateClock(l.Date, l.StartTime, loc)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := parseDateClock(l.Date, l.EndTime, loc)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}

func parseDateClock(date, clock string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+"T"+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q time %q", ErrInvalidTimeRef, date, clock)
}

// Schedule carries both stored time representations. Exactly one of them
// is authoritative: the unified pair wins whenever both instants are set.
type Schedule struct {
	Start *time.Time `json:"start_date_time,omitempty" yaml:"start_date_time,omitempty"`
	End   *time.Time `json:"end_date_time,omitempty" yaml:"end_date_time,omitempty"`

	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	StartTime string `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// Ref returns the authoritative representation of s.
func (s Schedule) Ref() TimeRef {
	if s.Start != nil && s.End != nil {
		return UnifiedTimeRef{Start: *s.Start, End: *s.End}
	}
	return LegacyTimeRef{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
}

// Range resolves s through [Schedule.Ref].
func (s Schedule) Range(loc *time.Location) (TimeRange, error) {
	return s.Ref().Resolve(loc)
}

// BookingCandidate is the minimal booking shape the intake pipeline and the
// conflict detector operate on.
type BookingCandidate struct {
	// ID is empty unless an existing booking is being edited. It excludes
	// the booking from its own conflict set.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	TeamID string `json:"team_id" yaml:"team_id" validate:"required"`

	Schedule `yaml:",inline"`
}

// ExistingBooking is a stored booking as seen by the conflict detector.
type ExistingBooking struct {
	BookingCandidate `yaml:",inline"`

	EventName   string `json:"event_name" yaml:"event_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	IsWholeDay  bool   `json:"is_whole_day" yaml:"is_whole_day"`
}

// CandidateFromCommand builds a new-booking candidate from a parsed command.
// ok is false when the command carries no time range.
func CandidateFromCommand(c ParsedCommand) (BookingCandidate, bool) {
	if c.Start == nil || c.End == nil {
		return BookingCandidate{}, false
	}
	start, end := *c.Start, *c.End
	return BookingCandidate{
		TeamID:   c.TeamID,
		Schedule: Schedule{Start: &start, End: &end},
	}, true
}
