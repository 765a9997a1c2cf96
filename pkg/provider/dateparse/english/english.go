// Package english implements [dateparse.Parser] for English-like text using an
// ordered table of regular-expression rules.
//
// Recognition runs in three passes over the input: calendar-day phrases
// (dates, weekdays, relative days), relative instants ("in 2 hours"), and
// clock phrases (single times and time ranges). The earliest match wins and
// is merged with an adjacent match of the other kind when only connective
// words separate them, so "tomorrow at 3pm" and "3pm tomorrow" resolve alike.
package english

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/MrWong99/voxbook/pkg/provider/dateparse"
	"github.com/MrWong99/voxbook/pkg/types"
)

// impliedHour is the time of day carried by date-only phrases.
const impliedHour = 12

// connectives may separate a date phrase from a time phrase that belongs to it.
var connectives = map[string]bool{
	"at": true, "on": true, "from": true, "by": true, "around": true, "the": true,
}

// Parser is the rule-based English [dateparse.Parser]. The zero value is
// ready to use and it is safe for concurrent use.
type Parser struct{}

// Ensure Parser satisfies the dateparse.Parser interface at compile time.
var _ dateparse.Parser = (*Parser)(nil)

// New returns a Parser.
func New() *Parser {
	return &Parser{}
}

type kind uint8

const (
	kindDate kind = iota + 1
	kindTime
	kindInstant
)

type clock struct {
	hour, min int
}

func (c clock) minutes() int { return c.hour*60 + c.min }

// match is one recognised phrase and its byte span in the input.
type match struct {
	kind       kind
	start, end int

	day     time.Time
	endDay  *time.Time
	weekday bool

	clock    clock
	endClock *clock

	instant time.Time
}

// ParseFirstSpan implements [dateparse.Parser].
func (p *Parser) ParseFirstSpan(text string, ref time.Time, opts dateparse.Options) (dateparse.Span, bool) {
	ms := scan(text, ref, opts)
	if len(ms) == 0 {
		return dateparse.Span{}, false
	}

	first := ms[0]
	var partner *match
	if len(ms) > 1 && pairs(first, ms[1]) && connectivesOnly(text[first.end:ms[1].start]) {
		partner = &ms[1]
	}

	span := compose(first, partner, ref, opts)
	end := first.end
	if partner != nil {
		end = partner.end
	}
	span.Index = first.start
	span.Text = text[first.start:end]
	return span, true
}

// scan returns every non-overlapping match in text ordered by position.
func scan(text string, ref time.Time, opts dateparse.Options) []match {
	var ms []match
	claim := func(m match) {
		for _, o := range ms {
			if m.start < o.end && o.start < m.end {
				return
			}
		}
		ms = append(ms, m)
	}

	for _, r := range dateRules {
		for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
			day, ok := r.resolve(groups(text, loc), ref, opts)
			if !ok {
				continue
			}
			claim(match{kind: kindDate, start: loc[0], end: loc[1], day: day, weekday: r.weekday})
		}
	}
	sortByStart(ms)
	ms = joinDateRanges(text, ms)

	for _, loc := range relativeTimeRe.FindAllStringSubmatchIndex(text, -1) {
		g := groups(text, loc)
		n, ok := parseCount(g[1])
		if !ok {
			continue
		}
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(g[2]), "h") {
			unit = time.Hour
		}
		claim(match{kind: kindInstant, start: loc[0], end: loc[1], instant: ref.Add(time.Duration(n) * unit)})
	}

	for _, loc := range timeRangeRe.FindAllStringSubmatchIndex(text, -1) {
		if m, ok := rangeMatch(groups(text, loc)); ok {
			m.start, m.end = loc[0], loc[1]
			claim(m)
		}
	}

	for _, loc := range timeRe.FindAllStringSubmatchIndex(text, -1) {
		g := groups(text, loc)
		c, ok := readClock(g[2])
		if !ok || (c.bare() && g[1] == "" && !c.oclock) {
			continue
		}
		cl, ok := c.resolve()
		if !ok {
			continue
		}
		claim(match{kind: kindTime, start: loc[0], end: loc[1], clock: cl})
	}

	sortByStart(ms)
	return ms
}

func sortByStart(ms []match) {
	slices.SortFunc(ms, func(a, b match) int { return a.start - b.start })
}

// joinDateRanges folds "<date> to <date>" into a single ranged date match.
// An end day before the start moves forward a week for weekdays and a year
// otherwise.
func joinDateRanges(text string, ms []match) []match {
	out := make([]match, 0, len(ms))
	for i := 0; i < len(ms); i++ {
		m := ms[i]
		if i+1 < len(ms) && dateRangeSep.MatchString(text[m.end:ms[i+1].start]) {
			next := ms[i+1]
			end := next.day
			if end.Before(m.day) {
				if next.weekday {
					end = end.AddDate(0, 0, 7)
				} else {
					end = end.AddDate(1, 0, 0)
				}
			}
			if !end.Before(m.day) {
				m.end = next.end
				m.endDay = &end
				i++
			}
		}
		out = append(out, m)
	}
	return out
}

func rangeMatch(g []string) (match, bool) {
	if strings.EqualFold(strings.TrimSpace(g[3]), "and") && !strings.EqualFold(g[1], "between") {
		return match{}, false
	}
	s, ok := readClock(g[2])
	if !ok {
		return match{}, false
	}
	e, ok := readClock(g[4])
	if !ok {
		return match{}, false
	}
	start, end, ok := clockRange(s, e)
	if !ok {
		return match{}, false
	}
	return match{kind: kindTime, clock: start, endClock: &end}, true
}

// pairs reports whether a and b are a date and a time that may combine.
func pairs(a, b match) bool {
	return (a.kind == kindDate && b.kind == kindTime) || (a.kind == kindTime && b.kind == kindDate)
}

func connectivesOnly(gap string) bool {
	words := strings.FieldsFunc(gap, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
	for _, w := range words {
		if !connectives[strings.ToLower(w)] {
			return false
		}
	}
	return true
}

// compose turns the first match, and its optional partner, into a span.
func compose(first match, partner *match, ref time.Time, opts dateparse.Options) dateparse.Span {
	if first.kind == kindInstant {
		return dateparse.Span{Start: first.instant, StartHourCertain: true}
	}

	var day, tod *match
	for _, m := range []*match{&first, partner} {
		if m == nil {
			continue
		}
		switch m.kind {
		case kindDate:
			day = m
		case kindTime:
			tod = m
		}
	}

	switch {
	case day != nil && tod != nil:
		start := at(day.day, tod.clock)
		span := dateparse.Span{Start: start, StartHourCertain: true}
		endDay := day.day
		if day.endDay != nil {
			endDay = *day.endDay
		}
		switch {
		case tod.endClock != nil:
			end := at(endDay, *tod.endClock)
			if !end.After(start) {
				end = end.AddDate(0, 0, 1)
			}
			span.End = &end
		case day.endDay != nil:
			end := at(endDay, tod.clock)
			span.End = &end
		}
		return span

	case day != nil:
		span := dateparse.Span{Start: at(day.day, clock{hour: impliedHour})}
		if day.endDay != nil {
			end := at(*day.endDay, clock{hour: impliedHour})
			span.End = &end
		}
		return span

	default:
		start := at(types.StartOfDay(ref), tod.clock)
		if opts.ForwardDate && start.Before(ref) {
			start = start.AddDate(0, 0, 1)
		}
		span := dateparse.Span{Start: start, StartHourCertain: true}
		if tod.endClock != nil {
			end := at(start, *tod.endClock)
			if !end.After(start) {
				end = end.AddDate(0, 0, 1)
			}
			span.End = &end
		}
		return span
	}
}

// at returns the instant of c on day's calendar date.
func at(day time.Time, c clock) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.hour, c.min, 0, 0, day.Location())
}
