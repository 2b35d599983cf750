// Package openai provides a speech recognizer backed by the OpenAI audio
// transcription API (Whisper).
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/elocute/pkg/provider"
	"github.com/MrWong99/elocute/pkg/provider/recognizer"
)

// Name is the provider identifier used in logs, metrics and errors.
const Name = "openai"

// DefaultModel is the default transcription model.
const DefaultModel = oai.AudioModelWhisper1

// Ensure Provider implements the recognizer.Provider interface.
var _ recognizer.Provider = (*Provider)(nil)

// Provider implements recognizer.Provider using the OpenAI API.
type Provider struct {
	client   oai.Client
	model    string
	language string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL  string
	language string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// OpenAI-compatible local servers.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithLanguage hints the audio language as an ISO-639-1 code (e.g. "en").
// When empty the backend auto-detects.
func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs an OpenAI-backed recognizer. If model is empty, DefaultModel
// (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai recognizer: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: cfg.language,
	}, nil
}

// Name implements recognizer.Provider.
func (p *Provider) Name() string { return Name }

// Transcribe implements recognizer.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (recognizer.Transcript, error) {
	if len(audio) == 0 {
		return recognizer.Transcript{}, provider.NewError(Name, provider.KindMalformed, errors.New("empty audio payload"))
	}

	params := oai.AudioTranscriptionNewParams{
		Model: p.model,
		File:  oai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
	}
	if p.language != "" {
		params.Language = oai.String(p.language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return recognizer.Transcript{}, classify(err)
	}
	return recognizer.Transcript{
		Text:     resp.Text,
		Language: p.language,
	}, nil
}

// classify maps OpenAI client errors onto the shared provider error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return provider.NewError(Name, provider.KindTimeout, err)
	}
	var apierr *oai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return provider.NewError(Name, provider.KindUnauthorized, err)
		case apierr.StatusCode >= 500:
			return provider.NewError(Name, provider.KindUnavailable, err)
		default:
			return provider.NewError(Name, provider.KindMalformed, err)
		}
	}
	return provider.NewError(Name, provider.KindUnavailable, err)
}
