// Package tts defines the speech synthesis capability used for spoken
// prompts.
//
// Synthesis is fire-and-forget: Speak hands the text to the engine and
// returns without waiting for playback to finish.
package tts

import "context"

// Speaker speaks a prompt in the given BCP-47 language.
type Speaker interface {
	Speak(ctx context.Context, text, language string) error
}

// SpeakerFunc adapts an ordinary function to [Speaker].
type SpeakerFunc func(ctx context.Context, text, language string) error

// Speak calls f(ctx, text, language).
func (f SpeakerFunc) Speak(ctx context.Context, text, language string) error {
	return f(ctx, text, language)
}

// Discard is a Speaker that drops every prompt.
var Discard Speaker = SpeakerFunc(func(context.Context, string, string) error { return nil })
