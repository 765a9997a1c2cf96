// Package mock provides test doubles for the stt package interfaces.
//
// Capturer returns queued results in order, which makes multi-turn session
// scripts easy to express:
//
//	c := &mock.Capturer{Results: []mock.Result{
//	    {Text: "meeting tomorrow at 3pm"},
//	    {Text: "marketing"},
//	}}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voxbook/pkg/provider/stt"
)

// Result is one scripted capture outcome.
type Result struct {
	Text string
	Err  error
}

// CaptureCall records a single invocation of Capturer.Capture.
type CaptureCall struct {
	Language string
}

// Capturer is a mock implementation of stt.Capturer.
type Capturer struct {
	mu sync.Mutex

	// Results are returned in order, one per call. Once exhausted, Capture
	// returns stt.ErrRecognition.
	Results []Result

	// Block makes Capture wait for ctx cancellation instead of consuming a
	// result. Use it to test cancellation paths.
	Block bool

	// Calls records every call to Capture.
	Calls []CaptureCall
}

// Capture records the call and returns the next scripted result.
func (c *Capturer) Capture(ctx context.Context, language string) (string, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, CaptureCall{Language: language})
	block := c.Block
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Results) == 0 {
		return "", stt.ErrRecognition
	}
	r := c.Results[0]
	c.Results = c.Results[1:]
	return r.Text, r.Err
}

// CallCount returns the number of Capture calls. Thread-safe.
func (c *Capturer) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (c *Capturer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
}

var _ stt.Capturer = (*Capturer)(nil)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Utterance holds a copy of the audio passed in.
	Utterance stt.Utterance
	Language  string
}

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Text is returned from every successful call.
	Text string

	// Err, if non-nil, is returned from every call.
	Err error

	// Calls records every call to Transcribe.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Text, Err.
func (t *Transcriber) Transcribe(_ context.Context, u stt.Utterance, language string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data := make([]byte, len(u.Data))
	copy(data, u.Data)
	t.Calls = append(t.Calls, TranscribeCall{
		Utterance: stt.Utterance{Data: data, ContentType: u.ContentType},
		Language:  language,
	})
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

var _ stt.Transcriber = (*Transcriber)(nil)
