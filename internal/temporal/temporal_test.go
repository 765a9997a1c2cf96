package temporal_test

import (
	"testing"
	"time"

	"github.com/MrWong99/voxbook/internal/temporal"
	"github.com/MrWong99/voxbook/pkg/provider/dateparse"
	"github.com/MrWong99/voxbook/pkg/provider/dateparse/mock"
)

// now is Wednesday 14 January 2026, 10:00 UTC.
var now = time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC)

func at(d, h, m, s int) time.Time {
	return time.Date(2026, time.January, d, h, m, s, 0, time.UTC)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		start  time.Time
		end    time.Time
		allDay bool
	}{
		{name: "explicit hours", text: "tomorrow at 3pm for 2 hours", start: at(15, 15, 0, 0), end: at(15, 17, 0, 0)},
		{name: "explicit minutes", text: "tomorrow at 3pm for 30 minutes", start: at(15, 15, 0, 0), end: at(15, 15, 30, 0)},
		{name: "default start hour", text: "tomorrow", start: at(15, 9, 0, 0), end: at(15, 10, 0, 0)},
		{name: "default duration", text: "friday at 11am", start: at(16, 11, 0, 0), end: at(16, 12, 0, 0)},
		{name: "parser range", text: "from 2 to 4pm", start: at(14, 14, 0, 0), end: at(14, 16, 0, 0)},
		{name: "duration beats range", text: "from 2 to 4pm for 1 hour", start: at(14, 14, 0, 0), end: at(14, 15, 0, 0)},
		{name: "single day", text: "tomorrow for 1 day", start: at(15, 0, 0, 0), end: at(15, 23, 59, 59), allDay: true},
		{name: "three days", text: "tomorrow for 3 days", start: at(15, 0, 0, 0), end: at(17, 23, 59, 59), allDay: true},
		{name: "zero days is one", text: "tomorrow at 3pm for 0 days", start: at(15, 0, 0, 0), end: at(15, 23, 59, 59), allDay: true},
		{name: "before is not for", text: "tomorrow before 2 hours", start: at(15, 9, 0, 0), end: at(15, 10, 0, 0)},
		{name: "multi-day hours", text: "tomorrow at 3pm for 48 hours", start: at(15, 15, 0, 0), end: at(17, 15, 0, 0)},
		{name: "absurd hours ignored", text: "meeting for 9999999999 hours tomorrow", start: at(15, 9, 0, 0), end: at(15, 10, 0, 0)},
		{name: "over a year of days ignored", text: "tomorrow for 400 days", start: at(15, 9, 0, 0), end: at(15, 10, 0, 0)},
	}

	e := temporal.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Extract(tt.text, now)
			if !got.Found() {
				t.Fatalf("Extract(%q) found nothing", tt.text)
			}
			if !got.Start.Equal(tt.start) {
				t.Errorf("Start = %v, want %v", *got.Start, tt.start)
			}
			if got.End == nil || !got.End.Equal(tt.end) {
				t.Errorf("End = %v, want %v", got.End, tt.end)
			}
			if got.IsAllDay != tt.allDay {
				t.Errorf("IsAllDay = %v, want %v", got.IsAllDay, tt.allDay)
			}
		})
	}
}

func TestExtract_InclusiveDayLaw(t *testing.T) {
	t.Parallel()

	e := temporal.New()

	one := e.Extract("tomorrow for 1 day", now)
	if one.Start.YearDay() != one.End.YearDay() {
		t.Errorf("for 1 day: start %v and end %v on different days", *one.Start, *one.End)
	}

	three := e.Extract("tomorrow for 3 days", now)
	if three.Start.Hour() != 0 || three.End.Hour() != 23 || three.End.Minute() != 59 || three.End.Second() != 59 {
		t.Errorf("for 3 days: not clamped to all-day bounds: %v - %v", *three.Start, *three.End)
	}
	if d := three.End.Day() - three.Start.Day(); d != 2 {
		t.Errorf("for 3 days: end is %d calendar days after start, want 2", d)
	}
}

func TestExtract_NoMatch(t *testing.T) {
	t.Parallel()

	got := temporal.New().Extract("book the marketing sync", now)
	if got.Found() || got.End != nil || got.IsAllDay {
		t.Errorf("Extract = %+v, want empty result", got)
	}
}

func TestExtract_UsesParserEndVerbatim(t *testing.T) {
	t.Parallel()

	start := at(20, 12, 0, 0)
	end := at(22, 12, 0, 0)
	p := &mock.Parser{
		Span: dateparse.Span{Start: start, End: &end},
		OK:   true,
	}
	e := temporal.New(temporal.WithParser(p), temporal.WithDefaultStartHour(8))

	got := e.Extract("tuesday to thursday", now)
	if !got.Start.Equal(at(20, 8, 0, 0)) {
		t.Errorf("Start = %v, want 08:00 default", *got.Start)
	}
	if !got.End.Equal(end) {
		t.Errorf("End = %v, want %v", *got.End, end)
	}

	if len(p.Calls) != 1 || !p.Calls[0].Opts.ForwardDate || !p.Calls[0].Ref.Equal(now) {
		t.Errorf("parser calls = %+v, want one forward-dated call at now", p.Calls)
	}
}

func TestWithDefaultDuration(t *testing.T) {
	t.Parallel()

	e := temporal.New(temporal.WithDefaultDuration(30 * time.Minute))
	got := e.Extract("tomorrow at 3pm", now)
	if want := at(15, 15, 30, 0); !got.End.Equal(want) {
		t.Errorf("End = %v, want %v", *got.End, want)
	}
}
