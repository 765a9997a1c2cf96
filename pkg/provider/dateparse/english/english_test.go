package english_test

import (
	"testing"
	"time"

	"github.com/MrWong99/voxbook/pkg/provider/dateparse"
	"github.com/MrWong99/voxbook/pkg/provider/dateparse/english"
)

// ref is Wednesday 14 January 2026, 10:00 UTC.
var ref = time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC)

func day(m time.Month, d, h, min int) time.Time {
	return time.Date(2026, m, d, h, min, 0, 0, time.UTC)
}

func TestParseFirstSpan(t *testing.T) {
	t.Parallel()

	forward := dateparse.Options{ForwardDate: true}

	tests := []struct {
		name    string
		text    string
		opts    dateparse.Options
		start   time.Time
		certain bool
		end     *time.Time
	}{
		{name: "tomorrow at 3pm", text: "tomorrow at 3pm", opts: forward, start: day(1, 15, 15, 0), certain: true},
		{name: "time before date", text: "3pm tomorrow", opts: forward, start: day(1, 15, 15, 0), certain: true},
		{name: "tomorrow only", text: "tomorrow", opts: forward, start: day(1, 15, 12, 0)},
		{name: "day after tomorrow", text: "the day after tomorrow", opts: forward, start: day(1, 16, 12, 0)},
		{name: "today", text: "today", opts: forward, start: day(1, 14, 12, 0)},
		{name: "future time today", text: "3pm", opts: forward, start: day(1, 14, 15, 0), certain: true},
		{name: "past time moves forward", text: "9am", opts: forward, start: day(1, 15, 9, 0), certain: true},
		{name: "past time without bias", text: "9am", start: day(1, 14, 9, 0), certain: true},
		{name: "bare at hour is afternoon", text: "at 3", opts: forward, start: day(1, 14, 15, 0), certain: true},
		{name: "bare at nine", text: "at 9", opts: forward, start: day(1, 15, 9, 0), certain: true},
		{name: "meridiem first", text: "pm 3", opts: forward, start: day(1, 14, 15, 0), certain: true},
		{name: "dotted meridiem", text: "3:30 p.m.", opts: forward, start: day(1, 14, 15, 30), certain: true},
		{name: "24 hour", text: "at 15:00", opts: forward, start: day(1, 14, 15, 0), certain: true},
		{name: "padded morning", text: "at 07:30", opts: forward, start: day(1, 15, 7, 30), certain: true},
		{name: "noon", text: "noon", opts: forward, start: day(1, 14, 12, 0), certain: true},
		{name: "midnight", text: "midnight", opts: forward, start: day(1, 15, 0, 0), certain: true},
		{name: "o'clock", text: "4 o'clock", opts: forward, start: day(1, 14, 16, 0), certain: true},
		{name: "weekday", text: "friday", opts: forward, start: day(1, 16, 12, 0)},
		{name: "weekday today", text: "wednesday", opts: forward, start: day(1, 14, 12, 0)},
		{name: "next same weekday", text: "next wednesday", opts: forward, start: day(1, 21, 12, 0)},
		{name: "next weekday is following week", text: "next friday", opts: forward, start: day(1, 23, 12, 0)},
		{name: "next passed weekday", text: "next monday", opts: forward, start: day(1, 19, 12, 0)},
		{name: "next weekday with range", text: "meeting next friday 2 to 4pm", opts: forward, start: day(1, 23, 14, 0), certain: true, end: ptr(day(1, 23, 16, 0))},
		{name: "last weekday", text: "last monday", opts: forward, start: day(1, 12, 12, 0)},
		{name: "short weekday", text: "thu", opts: forward, start: day(1, 15, 12, 0)},
		{name: "weekday with time", text: "friday at 10", opts: forward, start: day(1, 16, 10, 0), certain: true},
		{name: "time on weekday", text: "at 10 on friday", opts: forward, start: day(1, 16, 10, 0), certain: true},
		{name: "month day", text: "february 3rd", opts: forward, start: day(2, 3, 12, 0)},
		{name: "past month day rolls year", text: "january 10", opts: forward, start: time.Date(2027, 1, 10, 12, 0, 0, 0, time.UTC)},
		{name: "day month year", text: "15 march 2026", opts: forward, start: day(3, 15, 12, 0)},
		{name: "day of month", text: "the 5th of june", opts: forward, start: day(6, 5, 12, 0)},
		{name: "iso", text: "2026-02-01", opts: forward, start: day(2, 1, 12, 0)},
		{name: "slash", text: "2/3", opts: forward, start: day(2, 3, 12, 0)},
		{name: "in days", text: "in 3 days", opts: forward, start: day(1, 17, 12, 0)},
		{name: "in weeks", text: "in two weeks", opts: forward, start: day(1, 28, 12, 0)},
		{name: "next week", text: "next week", opts: forward, start: day(1, 21, 12, 0)},
		{name: "next month", text: "next month", opts: forward, start: day(2, 14, 12, 0)},
		{name: "in hours", text: "in 2 hours", opts: forward, start: day(1, 14, 12, 0), certain: true},
		{name: "in minutes", text: "in 30 minutes", opts: forward, start: day(1, 14, 10, 30), certain: true},
		{name: "time range", text: "from 2 to 4pm", opts: forward, start: day(1, 14, 14, 0), certain: true, end: ptr(day(1, 14, 16, 0))},
		{name: "dash range with date", text: "tomorrow 10-11am", opts: forward, start: day(1, 15, 10, 0), certain: true, end: ptr(day(1, 15, 11, 0))},
		{name: "meridiem flip", text: "11-1pm", opts: forward, start: day(1, 14, 11, 0), certain: true, end: ptr(day(1, 14, 13, 0))},
		{name: "range past midnight", text: "11pm to 1am", opts: forward, start: day(1, 14, 23, 0), certain: true, end: ptr(day(1, 15, 1, 0))},
		{name: "between and", text: "between 1pm and 3pm", opts: forward, start: day(1, 14, 13, 0), certain: true, end: ptr(day(1, 14, 15, 0))},
		{name: "weekday range", text: "monday to wednesday", opts: forward, start: day(1, 19, 12, 0), end: ptr(day(1, 21, 12, 0))},
		{name: "month range", text: "jan 20 - jan 22", opts: forward, start: day(1, 20, 12, 0), end: ptr(day(1, 22, 12, 0))},
		{name: "normalized gujarati order", text: "tomorrow PM 3 at for 2 hours", opts: forward, start: day(1, 15, 15, 0), certain: true},
		{name: "sentence", text: "book marketing team meeting tomorrow at 3pm for 2 hours", opts: forward, start: day(1, 15, 15, 0), certain: true},
	}

	p := english.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			span, ok := p.ParseFirstSpan(tt.text, ref, tt.opts)
			if !ok {
				t.Fatalf("ParseFirstSpan(%q) found no span", tt.text)
			}
			if !span.Start.Equal(tt.start) {
				t.Errorf("Start = %v, want %v", span.Start, tt.start)
			}
			if span.StartHourCertain != tt.certain {
				t.Errorf("StartHourCertain = %v, want %v", span.StartHourCertain, tt.certain)
			}
			switch {
			case tt.end == nil && span.End != nil:
				t.Errorf("End = %v, want nil", *span.End)
			case tt.end != nil && span.End == nil:
				t.Errorf("End = nil, want %v", *tt.end)
			case tt.end != nil && !span.End.Equal(*tt.end):
				t.Errorf("End = %v, want %v", *span.End, *tt.end)
			}
		})
	}
}

func TestParseFirstSpan_NextWeekday(t *testing.T) {
	t.Parallel()

	// Days from the reference day (rows, Sunday first) to "next <weekday>"
	// (columns, Sunday first). 11-17 January 2026 is Sunday to Saturday.
	want := [7][7]int{
		{7, 1, 2, 3, 4, 5, 6},
		{13, 7, 8, 9, 10, 11, 12},
		{12, 6, 7, 8, 9, 10, 11},
		{11, 5, 6, 7, 8, 9, 10},
		{10, 4, 5, 6, 7, 8, 9},
		{9, 3, 4, 5, 6, 7, 8},
		{8, 2, 3, 4, 5, 6, 7},
	}
	names := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

	p := english.New()
	for r := range 7 {
		from := time.Date(2026, time.January, 11+r, 8, 0, 0, 0, time.UTC)
		for w, name := range names {
			span, ok := p.ParseFirstSpan("next "+name, from, dateparse.Options{ForwardDate: true})
			if !ok {
				t.Fatalf("next %s from %s: no span", name, from.Weekday())
			}
			if got := int(span.Start.Sub(from.Truncate(24*time.Hour)).Hours()) / 24; got != want[r][w] {
				t.Errorf("next %s from %s = %s (+%d days), want +%d", name, from.Weekday(), span.Start.Format("Mon Jan 2"), got, want[r][w])
			}
		}
	}
}

func TestParseFirstSpan_NoMatch(t *testing.T) {
	t.Parallel()

	p := english.New()
	for _, text := range []string{
		"",
		"hello world",
		"book the marketing sync",
		"for 2 hours",
		"invite 5 people",
		"february 30",
		"at 25",
		"in 9999999999 hours",
		"in 20000 days",
	} {
		if span, ok := p.ParseFirstSpan(text, ref, dateparse.Options{ForwardDate: true}); ok {
			t.Errorf("ParseFirstSpan(%q) = %+v, want no span", text, span)
		}
	}
}

func TestParseFirstSpan_ReportsMatchedText(t *testing.T) {
	t.Parallel()

	span, ok := english.New().ParseFirstSpan("team sync tomorrow at 3pm please", ref, dateparse.Options{ForwardDate: true})
	if !ok {
		t.Fatal("no span")
	}
	if span.Text != "tomorrow at 3pm" {
		t.Errorf("Text = %q, want %q", span.Text, "tomorrow at 3pm")
	}
	if span.Index != 10 {
		t.Errorf("Index = %d, want 10", span.Index)
	}
}

func TestParseFirstSpan_UsesReferenceLocation(t *testing.T) {
	t.Parallel()

	kolkata := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, time.January, 14, 10, 0, 0, 0, kolkata)
	span, ok := english.New().ParseFirstSpan("tomorrow at 9am", now, dateparse.Options{ForwardDate: true})
	if !ok {
		t.Fatal("no span")
	}
	want := time.Date(2026, time.January, 15, 9, 0, 0, 0, kolkata)
	if !span.Start.Equal(want) || span.Start.Location() != kolkata {
		t.Errorf("Start = %v, want %v", span.Start, want)
	}
}

func ptr(t time.Time) *time.Time { return &t }
