// Package mock provides a test double for tts.Speaker.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voxbook/pkg/provider/tts"
)

// SpeakCall records a single invocation of Speaker.Speak.
type SpeakCall struct {
	Text     string
	Language string
}

// Speaker is a mock implementation of tts.Speaker.
type Speaker struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from every call.
	Err error

	// Calls records every call to Speak in order.
	Calls []SpeakCall
}

// Speak records the call and returns Err.
func (s *Speaker) Speak(_ context.Context, text, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, SpeakCall{Text: text, Language: language})
	return s.Err
}

// Texts returns the spoken texts in order. Thread-safe.
func (s *Speaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		out[i] = c.Text
	}
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (s *Speaker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = nil
}

var _ tts.Speaker = (*Speaker)(nil)
