// Package mock provides a test double for the features.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/elocute/pkg/provider/features"
)

// ExtractCall records a single invocation of Extract.
type ExtractCall struct {
	// Ctx is the context passed to Extract.
	Ctx context.Context
	// Audio is a copy of the payload passed to Extract.
	Audio []byte
	// Words is a copy of the word list passed to Extract.
	Words []string
}

// Provider is a mock implementation of features.Provider.
type Provider struct {
	mu sync.Mutex

	// ExtractResult is returned by Extract.
	ExtractResult features.Extraction

	// ExtractErr, if non-nil, is returned as the error from Extract.
	ExtractErr error

	// NameValue is returned by Name. Defaults to "mock".
	NameValue string

	// ExtractCalls records every call to Extract in order.
	ExtractCalls []ExtractCall
}

// Extract records the call and returns ExtractResult, ExtractErr.
func (p *Provider) Extract(ctx context.Context, audio []byte, words []string) (features.Extraction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	audioCp := make([]byte, len(audio))
	copy(audioCp, audio)
	wordsCp := make([]string, len(words))
	copy(wordsCp, words)
	p.ExtractCalls = append(p.ExtractCalls, ExtractCall{Ctx: ctx, Audio: audioCp, Words: wordsCp})
	if p.ExtractErr != nil {
		return features.Extraction{}, p.ExtractErr
	}
	return p.ExtractResult, nil
}

// Name returns NameValue, or "mock" when unset.
func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ExtractCalls = nil
}

// Ensure Provider implements features.Provider at compile time.
var _ features.Provider = (*Provider)(nil)
