// Package stt defines the speech capture capabilities the voice session
// depends on.
//
// A [Capturer] produces one final transcript per call: the browser speech
// engine behind a websocket, a server-side [Transcriber] fed with recorded
// audio, or a test double. Failures are reported with the sentinel errors
// below so callers can choose the right user-facing prompt.
package stt

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported is returned when the client has no speech recognition
	// capability at all.
	ErrUnsupported = errors.New("stt: speech recognition unsupported")

	// ErrRecognition is returned when recognition started but did not
	// produce a transcript (no input, engine failure, aborted stream).
	ErrRecognition = errors.New("stt: recognition error")
)

// Capturer captures a single utterance and returns its final transcript.
//
// Capture blocks until a transcript is available, the capture fails, or ctx
// is cancelled. language is a BCP-47 tag such as "en-US" or "gu-IN".
type Capturer interface {
	Capture(ctx context.Context, language string) (string, error)
}

// CapturerFunc adapts an ordinary function to [Capturer].
type CapturerFunc func(ctx context.Context, language string) (string, error)

// Capture calls f(ctx, language).
func (f CapturerFunc) Capture(ctx context.Context, language string) (string, error) {
	return f(ctx, language)
}

// Utterance is one recorded audio clip.
type Utterance struct {
	// Data holds the encoded audio (webm, ogg, wav, mp3 ...).
	Data []byte

	// ContentType is the MIME type of Data, e.g. "audio/webm". Empty means
	// the transcriber should sniff or assume its default.
	ContentType string
}

// Transcriber converts recorded audio into text. Implementations must be
// safe for concurrent use.
type Transcriber interface {
	Transcribe(ctx context.Context, u Utterance, language string) (string, error)
}
