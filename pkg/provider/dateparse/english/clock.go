package english

import "strings"

// clockText is a clock phrase as written, before meridiem resolution.
type clockText struct {
	hour, min int
	mer       byte // 'a', 'p' or 0
	named     bool
	colon     bool
	padded    bool
	oclock    bool
}

// bare reports whether the phrase is a lone hour number.
func (c clockText) bare() bool {
	return c.mer == 0 && !c.named && !c.colon
}

func readClock(s string) (clockText, bool) {
	s = strings.TrimSpace(s)
	if g := namedAtom.FindStringSubmatch(s); g != nil {
		c := clockText{named: true}
		if strings.EqualFold(g[1], "noon") {
			c.hour = 12
		}
		return c, true
	}
	if g := merFirstAtom.FindStringSubmatch(s); g != nil {
		return clockText{
			hour:  atoi(g[2]),
			min:   atoi(g[3]),
			mer:   lowerByte(g[1][0]),
			colon: g[3] != "",
		}, true
	}
	if g := clockAtom.FindStringSubmatch(s); g != nil {
		c := clockText{
			hour:   atoi(g[1]),
			min:    atoi(g[2]),
			colon:  g[2] != "",
			padded: len(g[1]) == 2 && g[1][0] == '0',
			oclock: g[3] != "",
		}
		if g[4] != "" {
			c.mer = lowerByte(g[4][0])
		}
		return c, true
	}
	return clockText{}, false
}

// resolve converts the phrase to a 24-hour clock. Hours 1 to 7 without a
// meridiem or leading zero read as afternoon, the usual meaning of "at 3"
// when booking.
func (c clockText) resolve() (clock, bool) {
	if c.min < 0 || c.min > 59 {
		return clock{}, false
	}
	h := c.hour
	switch c.mer {
	case 'a', 'p':
		if h < 1 || h > 12 {
			return clock{}, false
		}
		h %= 12
		if c.mer == 'p' {
			h += 12
		}
	default:
		if h > 23 {
			return clock{}, false
		}
		if !c.named && !c.padded && h >= 1 && h <= 7 {
			h += 12
		}
	}
	return clock{hour: h, min: c.min}, true
}

// clockRange resolves both ends of a time range. A start without a meridiem
// borrows the end's, flipping it when that would place the start after the
// end ("11-1pm" is 11:00 to 13:00).
func clockRange(s, e clockText) (clock, clock, bool) {
	end, ok := e.resolve()
	if !ok {
		return clock{}, clock{}, false
	}
	if s.mer == 0 && !s.named && e.mer != 0 && s.hour >= 1 && s.hour <= 12 {
		s.mer = e.mer
		start, ok := s.resolve()
		if ok && start.minutes() > end.minutes() {
			s.mer = flip(s.mer)
			start, ok = s.resolve()
		}
		return start, end, ok
	}
	start, ok := s.resolve()
	return start, end, ok
}

func flip(mer byte) byte {
	if mer == 'a' {
		return 'p'
	}
	return 'a'
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}
