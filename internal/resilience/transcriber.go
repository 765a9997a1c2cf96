package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/voxbook/pkg/provider/stt"
)

// Transcriber fails over between several [stt.Transcriber] backends.
// stt.ErrRecognition from a backend means the audio held no speech; it is
// returned directly and does not count against the backend.
type Transcriber struct {
	group *Failover[stt.Transcriber]
}

var _ stt.Transcriber = (*Transcriber)(nil)

// NewTranscriber wraps backends in preference order. It returns an error
// when backends is empty.
func NewTranscriber(cfg BreakerConfig, backends ...Backend[stt.Transcriber]) (*Transcriber, error) {
	if len(backends) == 0 {
		return nil, errors.New("resilience: no transcriber backends")
	}
	base := cfg.IsFailure
	cfg.IsFailure = func(err error) bool {
		if errors.Is(err, stt.ErrRecognition) {
			return false
		}
		if base != nil {
			return base(err)
		}
		return countsAsFailure(err)
	}
	return &Transcriber{group: NewFailover(cfg, backends...)}, nil
}

// Transcribe implements [stt.Transcriber]. When every backend fails the
// error wraps both [ErrExhausted] and [stt.ErrRecognition].
func (t *Transcriber) Transcribe(ctx context.Context, u stt.Utterance, language string) (string, error) {
	text, err := Call(ctx, t.group, func(ctx context.Context, b Backend[stt.Transcriber]) (string, error) {
		return b.Value.Transcribe(ctx, u, language)
	})
	if errors.Is(err, ErrExhausted) {
		return "", fmt.Errorf("%w: %w", stt.ErrRecognition, err)
	}
	return text, err
}

// States reports each backend's breaker state.
func (t *Transcriber) States() map[string]State {
	return t.group.States()
}
