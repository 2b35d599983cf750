// Package praat provides a features.Provider backed by a Praat analysis HTTP
// service.
//
// The service runs Praat scripts server-side and exposes them at
// POST /v1/features: it accepts a base64-encoded audio payload plus the
// reference word list and responds with utterance-level measurements and
// per-vowel word acoustics.
package praat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrWong99/elocute/pkg/provider"
	"github.com/MrWong99/elocute/pkg/provider/features"
	"github.com/MrWong99/elocute/pkg/prosody"
)

// Name is the provider identifier used in logs, metrics and errors.
const Name = "praat"

const defaultTimeout = 60 * time.Second

// Ensure Provider implements the features.Provider interface.
var _ features.Provider = (*Provider)(nil)

// Provider implements features.Provider against a Praat analysis service.
type Provider struct {
	baseURL string
	client  *http.Client
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client. The default client uses a
// 60 second timeout; Praat pitch analysis is slow on long recordings.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithTimeout sets the HTTP timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.client.Timeout = d
	}
}

// New constructs a Praat-backed features provider.
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("praat: baseURL must not be empty")
	}
	p := &Provider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Name implements features.Provider.
func (p *Provider) Name() string { return Name }

// extractRequest is the JSON body of an extraction call.
type extractRequest struct {
	AudioBase64 string   `json:"audio_base64"`
	Format      string   `json:"format"`
	Words       []string `json:"words"`
}

// extractResponse mirrors the service response.
type extractResponse struct {
	Features prosody.Features        `json:"features"`
	Words    []prosody.WordAcoustics `json:"words"`
}

// Extract implements features.Provider.
func (p *Provider) Extract(ctx context.Context, audio []byte, words []string) (features.Extraction, error) {
	if len(audio) == 0 {
		return features.Extraction{}, provider.NewError(Name, provider.KindMalformed, errors.New("empty audio payload"))
	}

	body, err := json.Marshal(extractRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		Format:      "wav",
		Words:       words,
	})
	if err != nil {
		return features.Extraction{}, provider.NewError(Name, provider.KindMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/features", bytes.NewReader(body))
	if err != nil {
		return features.Extraction{}, provider.NewError(Name, provider.KindMalformed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return features.Extraction{}, provider.NewError(Name, provider.KindTimeout, err)
		}
		var netTimeout interface{ Timeout() bool }
		if errors.As(err, &netTimeout) && netTimeout.Timeout() {
			return features.Extraction{}, provider.NewError(Name, provider.KindTimeout, err)
		}
		return features.Extraction{}, provider.NewError(Name, provider.KindUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return features.Extraction{}, provider.NewError(Name, provider.KindUnauthorized, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return features.Extraction{}, provider.NewError(Name, provider.KindUnavailable, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return features.Extraction{}, provider.NewError(Name, provider.KindMalformed, fmt.Errorf("status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return features.Extraction{}, provider.NewError(Name, provider.KindUnavailable, err)
	}
	var er extractResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		return features.Extraction{}, provider.NewError(Name, provider.KindMalformed, err)
	}
	return features.Extraction{Features: er.Features, Words: er.Words}, nil
}
