// Package phonics provides a quality.Provider backed by a phonics scoring
// HTTP service.
//
// The service accepts a base64-encoded audio payload plus the reference text
// at POST /v1/score and responds with a JSON body containing the overall
// pronunciation quality on the 0-100 scale.
package phonics

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
	"github.com/MrWong99/elocute/pkg/provider/quality"
)

// Name is the provider identifier used in logs, metrics and errors.
const Name = "phonics"

const defaultTimeout = 30 * time.Second

// Ensure Provider implements the quality.Provider interface.
var _ quality.Provider = (*Provider)(nil)

// Provider implements quality.Provider against a phonics scoring service.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client. The default client uses a
// 30 second timeout.
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

// New constructs a phonics-backed quality provider. baseURL is the service
// root, e.g. "https://phonics.example.com".
func New(baseURL, apiKey string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("phonics: baseURL must not be empty")
	}
	p := &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Name implements quality.Provider.
func (p *Provider) Name() string { return Name }

// scoreRequest is the JSON body of a scoring call.
type scoreRequest struct {
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format"`
	Text        string `json:"text"`
}

// scoreResponse is the JSON body of a scoring result.
type scoreResponse struct {
	Score float64 `json:"score"`
}

// Score implements quality.Provider.
func (p *Provider) Score(ctx context.Context, audio []byte, referenceText string) (float64, error) {
	if len(audio) == 0 {
		return 0, provider.NewError(Name, provider.KindMalformed, errors.New("empty audio payload"))
	}

	body, err := json.Marshal(scoreRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		Format:      "wav",
		Text:        referenceText,
	})
	if err != nil {
		return 0, provider.NewError(Name, provider.KindMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return 0, provider.NewError(Name, provider.KindMalformed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return 0, provider.NewError(Name, provider.KindTimeout, err)
		}
		var urlTimeout interface{ Timeout() bool }
		if errors.As(err, &urlTimeout) && urlTimeout.Timeout() {
			return 0, provider.NewError(Name, provider.KindTimeout, err)
		}
		return 0, provider.NewError(Name, provider.KindUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return 0, provider.NewError(Name, provider.KindUnauthorized, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return 0, provider.NewError(Name, provider.KindUnavailable, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return 0, provider.NewError(Name, provider.KindMalformed, fmt.Errorf("status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, provider.NewError(Name, provider.KindUnavailable, err)
	}
	var sr scoreResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return 0, provider.NewError(Name, provider.KindMalformed, err)
	}
	if sr.Score < 0 || sr.Score > 100 {
		return 0, provider.NewError(Name, provider.KindMalformed, fmt.Errorf("score %.2f outside the 0-100 scale", sr.Score))
	}
	return sr.Score, nil
}
