// Package dateparse defines the Parser interface for natural-language date and
// time phrase recognition.
//
// A Parser scans free text for the first date/time expression and resolves it
// against a reference instant. The intake pipeline runs it on normalised
// transcripts, so implementations only need to understand one (English-like)
// phrasing; language variety is absorbed by the dictionaries upstream.
//
// Implementations must be safe for concurrent use and must never read the
// wall clock: the reference instant is always passed in.
package dateparse

import "time"

// Options tunes how ambiguous phrases resolve.
type Options struct {
	// ForwardDate resolves ambiguous, year-less or time-only phrases to the
	// future relative to the reference instant, never the past.
	ForwardDate bool
}

// Span is the first date/time expression recognised in a text.
type Span struct {
	// Start is the resolved start instant in the reference instant's location.
	Start time.Time

	// StartHourCertain reports whether the text named an explicit hour. When
	// false, Start carries an implied time of day that callers may replace.
	StartHourCertain bool

	// End is the resolved end instant when the text described a range. Nil
	// otherwise.
	End *time.Time

	// Text is the matched substring of the input and Index its byte offset.
	Text  string
	Index int
}

// Parser is the abstraction over any date/time phrase recogniser.
type Parser interface {
	// ParseFirstSpan returns the first recognised span in text, resolved
	// against ref. ok is false when the text contains no date or time.
	ParseFirstSpan(text string, ref time.Time, opts Options) (span Span, ok bool)
}
