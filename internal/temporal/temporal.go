// Package temporal extracts a booking's start, end and all-day flag from
// normalised transcript text.
//
// The [Extractor] delegates phrase recognition to a [dateparse.Parser] and
// layers the booking policy on top: an unstated hour defaults to a business
// anchor, an explicit "for N <unit>" phrase sets the duration, and anything
// else falls back to the parser's own range or a one-hour default.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/voxbook/pkg/provider/dateparse"
	"github.com/MrWong99/voxbook/pkg/provider/dateparse/english"
	"github.com/MrWong99/voxbook/pkg/types"
)

const (
	defaultStartHour = 9
	defaultDuration  = time.Hour

	// maxDurationDays bounds an explicit duration. Longer phrases are not
	// read as durations.
	maxDurationDays = 366
)

var unitsPerDay = map[string]int{"day": 1, "hour": 24, "minute": 24 * 60}

// durationRe matches an explicit duration phrase. The leading word boundary
// keeps "before 2 hours" from reading as a duration.
var durationRe = regexp.MustCompile(`(?i)\bfor\s+(\d+)\s+(day|hour|minute)s?\b`)

// Result is the temporal part of a parsed command. Start and End are nil
// when no date or time was recognised.
type Result struct {
	Start    *time.Time
	End      *time.Time
	IsAllDay bool
}

// Found reports whether a date or time was recognised.
func (r Result) Found() bool {
	return r.Start != nil
}

// Option is a functional option for configuring an [Extractor].
type Option func(*Extractor)

// WithParser sets the phrase parser. Default: [english.Parser].
func WithParser(p dateparse.Parser) Option {
	return func(e *Extractor) {
		e.parser = p
	}
}

// WithDefaultStartHour sets the hour used when the text names a day but no
// time. Default: 9.
func WithDefaultStartHour(h int) Option {
	return func(e *Extractor) {
		if h >= 0 && h <= 23 {
			e.startHour = h
		}
	}
}

// WithDefaultDuration sets the duration used when neither a duration phrase
// nor a parsed range is present. Default: one hour.
func WithDefaultDuration(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.duration = d
		}
	}
}

// Extractor resolves temporal information. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	parser    dateparse.Parser
	startHour int
	duration  time.Duration
}

// New returns an Extractor configured with opts.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		parser:    english.New(),
		startHour: defaultStartHour,
		duration:  defaultDuration,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract resolves text against now. now also fixes the location of every
// returned instant.
func (e *Extractor) Extract(text string, now time.Time) Result {
	span, ok := e.parser.ParseFirstSpan(text, now, dateparse.Options{ForwardDate: true})
	if !ok {
		return Result{}
	}

	start := span.Start
	if !span.StartHourCertain {
		y, m, d := start.Date()
		start = time.Date(y, m, d, e.startHour, 0, 0, 0, start.Location())
	}

	if n, unit, ok := explicitDuration(text); ok {
		if unit == "day" {
			if n < 1 {
				n = 1
			}
			s := types.StartOfDay(start)
			end := types.EndOfDay(s.AddDate(0, 0, n-1))
			return Result{Start: &s, End: &end, IsAllDay: true}
		}
		step := time.Hour
		if unit == "minute" {
			step = time.Minute
		}
		end := start.Add(time.Duration(n) * step)
		return Result{Start: &start, End: &end}
	}

	if span.End != nil {
		end := *span.End
		return Result{Start: &start, End: &end}
	}

	end := start.Add(e.duration)
	return Result{Start: &start, End: &end}
}

// explicitDuration finds the first "for N day|hour|minute(s)" phrase of at
// most a year.
func explicitDuration(text string) (n int, unit string, ok bool) {
	g := durationRe.FindStringSubmatch(text)
	if g == nil {
		return 0, "", false
	}
	unit = strings.ToLower(g[2])
	n, err := strconv.Atoi(g[1])
	if err != nil || n > maxDurationDays*unitsPerDay[unit] {
		return 0, "", false
	}
	return n, unit, true
}
