package types

import "time"

// Layouts shared by display code and the conflict message formatter.
const (
	ISODateLayout     = "2006-01-02"
	Clock24Layout     = "15:04"
	Clock12Layout     = "3:04 PM"
	DisplayDateLayout = "Jan 2, 2006"
)

// FormatISODate formats t as YYYY-MM-DD in t's location.
func FormatISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// FormatClock12 converts an HH:MM wall-clock string to "3:04 PM" form.
// Returns the empty string when clock is empty or malformed.
func FormatClock12(clock string) string {
	t, err := time.Parse(Clock24Layout, clock)
	if err != nil {
		return ""
	}
	return t.Format(Clock12Layout)
}

// FormatDisplayDate converts a YYYY-MM-DD date to "Jan 15, 2026" form.
// Returns the input unchanged when it cannot be parsed.
func FormatDisplayDate(date string) string {
	t, err := time.Parse(ISODateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(DisplayDateLayout)
}

// IsPastDate reports whether the YYYY-MM-DD date lies strictly before the
// calendar day of now. Malformed dates are never past.
func IsPastDate(date string, now time.Time) bool {
	d, err := time.ParseInLocation(ISODateLayout, date, now.Location())
	if err != nil {
		return false
	}
	return d.Before(StartOfDay(now))
}

// DayOfWeek returns the English weekday name for a YYYY-MM-DD date, or the
// empty string when the date is malformed.
func DayOfWeek(date string) string {
	t, err := time.Parse(ISODateLayout, date)
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

// StartOfDay returns 00:00:00 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
