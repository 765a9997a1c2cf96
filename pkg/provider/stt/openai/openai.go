// Package openai provides an [stt.Transcriber] backed by the OpenAI audio
// transcription endpoint.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/text/language"

	"github.com/MrWong99/voxbook/pkg/provider/stt"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = string(oai.AudioModelWhisper1)

var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber implements stt.Transcriber using the OpenAI API.
type Transcriber struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	maxRetries   int
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMaxRetries sets how often a failed request is retried. Default: 2.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// New constructs a Transcriber. If model is empty, DefaultModel is used.
func New(apiKey, model string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai stt: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{maxRetries: 2}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Transcriber{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Model returns the configured transcription model.
func (t *Transcriber) Model() string {
	return t.model
}

// Transcribe implements stt.Transcriber. Request failures are reported as
// [stt.ErrRecognition].
func (t *Transcriber) Transcribe(ctx context.Context, u stt.Utterance, lang string) (string, error) {
	if len(u.Data) == 0 {
		return "", fmt.Errorf("%w: empty audio", stt.ErrRecognition)
	}

	params := oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(t.model),
		File:  oai.File(bytes.NewReader(u.Data), fileName(u.ContentType), contentType(u.ContentType)),
	}
	if code := isoLanguage(lang); code != "" {
		params.Language = oai.String(code)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: openai: %v", stt.ErrRecognition, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// isoLanguage reduces a BCP-47 tag to the ISO-639-1 code the API expects.
// Unknown tags yield "" so the API auto-detects.
func isoLanguage(tag string) string {
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	base, conf := t.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

var extensions = map[string]string{
	"audio/webm":  "webm",
	"audio/ogg":   "ogg",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
	"audio/mpeg":  "mp3",
	"audio/mp4":   "m4a",
	"audio/flac":  "flac",
}

func contentType(ct string) string {
	if ct == "" {
		return "audio/webm"
	}
	return ct
}

// fileName picks an upload name whose extension tells the API the format.
func fileName(ct string) string {
	mt, _, err := mime.ParseMediaType(contentType(ct))
	if err != nil {
		return "utterance.webm"
	}
	if ext, ok := extensions[mt]; ok {
		return "utterance." + ext
	}
	return "utterance.webm"
}
