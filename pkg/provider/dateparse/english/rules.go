package english

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/voxbook/pkg/provider/dateparse"
	"github.com/MrWong99/voxbook/pkg/types"
)

const (
	monthPattern   = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`
	weekdayPattern = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|wed|thurs|thur|thu|fri|sat|sun)`
	countPattern   = `(\d+|an?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`

	merPattern  = `[ap](?:\.m\.?|m\b)`
	merFirst    = merPattern + `\s+\d{1,2}(?::\d{2})?\b`
	clock12     = `\d{1,2}(?::\d{2})?\s*(?:o'?clock\s*)?` + merPattern
	clock24     = `\d{1,2}:\d{2}\b`
	namedClock  = `(?:12\s+)?(?:noon|midnight)\b`
	bareClock   = `\d{1,2}(?:\s*o'?clock)?\b`
	fullClock   = merFirst + `|` + clock12 + `|` + clock24 + `|` + namedClock
	rangeOpener = `\d{1,2}(?::\d{2})?`
)

func rx(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

var countWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12,
}

// dateRule recognises one calendar-day phrase. resolve returns midnight of
// the day in ref's location.
type dateRule struct {
	name    string
	re      *regexp.Regexp
	weekday bool
	resolve func(g []string, ref time.Time, opts dateparse.Options) (time.Time, bool)
}

// dateRules is ordered by priority: a span claimed by an earlier rule is not
// reconsidered by later ones.
var dateRules = []dateRule{
	{
		name: "iso",
		re:   rx(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		resolve: func(g []string, ref time.Time, _ dateparse.Options) (time.Time, bool) {
			return calendarDate(atoi(g[1]), time.Month(atoi(g[2])), atoi(g[3]), ref.Location())
		},
	},
	{
		name: "month-day",
		re:   rx(`\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`),
		resolve: func(g []string, ref time.Time, opts dateparse.Options) (time.Time, bool) {
			return yearless(monthOf(g[1]), atoi(g[2]), g[3], ref, opts)
		},
	},
	{
		name: "day-month",
		re:   rx(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b(?:,?\s+(\d{4})\b)?`),
		resolve: func(g []string, ref time.Time, opts dateparse.Options) (time.Time, bool) {
			return yearless(monthOf(g[2]), atoi(g[1]), g[3], ref, opts)
		},
	},
	{
		name: "slash",
		re:   rx(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`),
		resolve: func(g []string, ref time.Time, opts dateparse.Options) (time.Time, bool) {
			return yearless(time.Month(atoi(g[1])), atoi(g[2]), g[3], ref, opts)
		},
	},
	{name: "day-after-tomorrow", re: rx(`\b(?:the\s+)?day\s+after\s+tomorrow\b`), resolve: offsetDays(2)},
	{name: "tomorrow", re: rx(`\btomorrow\b`), resolve: offsetDays(1)},
	{name: "today", re: rx(`\b(?:today|tonight)\b`), resolve: offsetDays(0)},
	{
		name: "in-days",
		re:   rx(`\bin\s+` + countPattern + `\s+(days?|weeks?)\b`),
		resolve: func(g []string, ref time.Time, _ dateparse.Options) (time.Time, bool) {
			n, ok := parseCount(g[1])
			if !ok {
				return time.Time{}, false
			}
			if strings.HasPrefix(strings.ToLower(g[2]), "week") {
				n *= 7
			}
			return types.StartOfDay(ref).AddDate(0, 0, n), true
		},
	},
	{name: "next-week", re: rx(`\bnext\s+week\b`), resolve: offsetDays(7)},
	{
		name: "next-month",
		re:   rx(`\bnext\s+month\b`),
		resolve: func(_ []string, ref time.Time, _ dateparse.Options) (time.Time, bool) {
			return types.StartOfDay(ref).AddDate(0, 1, 0), true
		},
	},
	{
		name:    "weekday",
		re:      rx(`\b(?:(this|next|last)\s+)?` + weekdayPattern + `\b`),
		weekday: true,
		resolve: weekdayDate,
	},
}

var (
	// relativeTimeRe matches "in N hours|minutes", resolved against the
	// reference instant rather than a calendar day.
	relativeTimeRe = rx(`\bin\s+` + countPattern + `\s+(hours?|hrs?|minutes?|mins?)\b`)

	// timeRangeRe groups: 1 opener word, 2 start clock, 3 separator, 4 end clock.
	timeRangeRe = rx(`\b(?:(from|between)\s+)?(?:at\s+)?(` + fullClock + `|` + rangeOpener + `)` +
		`(\s*[-–]\s*|\s+(?:to|until|till|through|and)\s+)(?:at\s+)?(` + fullClock + `)`)

	// timeRe groups: 1 "at" prefix, 2 clock.
	timeRe = rx(`\b(at\s+)?(` + fullClock + `|` + bareClock + `)`)

	dateRangeSep = rx(`^\s*(?:-|–|to|through|until|till)\s*$`)
)

var (
	namedAtom    = rx(`^(?:12\s+)?(noon|midnight)$`)
	merFirstAtom = rx(`^([ap])(?:\.m\.?|m)\s+(\d{1,2})(?::(\d{2}))?$`)
	clockAtom    = rx(`^(\d{1,2})(?::(\d{2}))?\s*(o'?clock)?\s*(?:([ap])(?:\.m\.?|m))?$`)
)

func offsetDays(n int) func([]string, time.Time, dateparse.Options) (time.Time, bool) {
	return func(_ []string, ref time.Time, _ dateparse.Options) (time.Time, bool) {
		return types.StartOfDay(ref).AddDate(0, 0, n), true
	}
}

// weekdayDate resolves a weekday name. A bare or "this" weekday is the next
// occurrence on or after the reference day, "next" follows [nextWeekdayDays]
// and "last" is strictly before the reference day.
func weekdayDate(g []string, ref time.Time, _ dateparse.Options) (time.Time, bool) {
	wd, ok := weekdays[strings.ToLower(g[2])[:3]]
	if !ok {
		return time.Time{}, false
	}
	today := types.StartOfDay(ref)
	diff := (int(wd) - int(today.Weekday()) + 7) % 7
	switch strings.ToLower(g[1]) {
	case "next":
		diff = nextWeekdayDays(today.Weekday(), wd)
	case "last":
		diff -= 7
	}
	return today.AddDate(0, 0, diff), true
}

// nextWeekdayDays counts the days from ref to "next <wd>". Monday to Friday
// a "next" day is the one in the following week, unless it has already
// passed this week; Sunday closes the week, so "next sunday" is always a
// week later than the coming one. From a weekend day the coming week is the
// next one.
func nextWeekdayDays(ref, wd time.Weekday) int {
	forward := (int(wd) - int(ref) + 7) % 7
	switch ref {
	case time.Sunday:
		if wd == time.Sunday {
			return 7
		}
		return int(wd)
	case time.Saturday:
		switch wd {
		case time.Saturday:
			return 7
		case time.Sunday:
			return 8
		}
		return 1 + int(wd)
	}
	if wd < ref && wd != time.Sunday {
		return forward
	}
	return forward + 7
}

// yearless resolves a month/day pair. With no explicit year the reference
// year is used, moved to the next year under forward bias when the day has
// already passed.
func yearless(m time.Month, d int, year string, ref time.Time, opts dateparse.Options) (time.Time, bool) {
	loc := ref.Location()
	if year != "" {
		y := atoi(year)
		if len(year) == 2 {
			y += 2000
		}
		return calendarDate(y, m, d, loc)
	}
	t, ok := calendarDate(ref.Year(), m, d, loc)
	if opts.ForwardDate && (!ok || t.Before(types.StartOfDay(ref))) {
		return calendarDate(ref.Year()+1, m, d, loc)
	}
	return t, ok
}

// calendarDate returns midnight of y-m-d, rejecting days the month lacks.
func calendarDate(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func monthOf(name string) time.Month {
	return months[strings.ToLower(name)[:3]]
}

// maxCount bounds the N of "in N days|weeks|hours|minutes".
const maxCount = 10000

func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n <= maxCount
	}
	n, ok := countWords[strings.ToLower(s)]
	return n, ok
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// groups converts a submatch index slice into strings, leaving unmatched
// groups empty.
func groups(text string, loc []int) []string {
	g := make([]string, len(loc)/2)
	for i := range g {
		if loc[2*i] >= 0 {
			g[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return g
}
