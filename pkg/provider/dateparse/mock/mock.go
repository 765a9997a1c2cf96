// Package mock provides a test double for the dateparse.Parser interface.
//
// Example:
//
//	p := &mock.Parser{Span: dateparse.Span{Start: start, StartHourCertain: true}, OK: true}
//	span, ok := p.ParseFirstSpan("tomorrow at 3pm", now, dateparse.Options{ForwardDate: true})
package mock

import (
	"sync"
	"time"

	"github.com/MrWong99/voxbook/pkg/provider/dateparse"
)

// ParseCall records a single invocation of ParseFirstSpan.
type ParseCall struct {
	Text string
	Ref  time.Time
	Opts dateparse.Options
}

// Parser is a mock implementation of dateparse.Parser.
type Parser struct {
	mu sync.Mutex

	// Span and OK are returned by every ParseFirstSpan call.
	Span dateparse.Span
	OK   bool

	// Calls records every call to ParseFirstSpan in order.
	Calls []ParseCall
}

// ParseFirstSpan records the call and returns Span, OK.
func (p *Parser) ParseFirstSpan(text string, ref time.Time, opts dateparse.Options) (dateparse.Span, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, ParseCall{Text: text, Ref: ref, Opts: opts})
	return p.Span, p.OK
}

// Reset clears all recorded calls. Thread-safe.
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Parser implements dateparse.Parser at compile time.
var _ dateparse.Parser = (*Parser)(nil)
