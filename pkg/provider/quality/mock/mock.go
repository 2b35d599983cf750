// Package mock provides a test double for the quality.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/elocute/pkg/provider/quality"
)

// ScoreCall records a single invocation of Score.
type ScoreCall struct {
	// Ctx is the context passed to Score.
	Ctx context.Context
	// Audio is a copy of the payload passed to Score.
	Audio []byte
	// ReferenceText is the reference text passed to Score.
	ReferenceText string
}

// Provider is a mock implementation of quality.Provider.
type Provider struct {
	mu sync.Mutex

	// ScoreResult is returned by Score.
	ScoreResult float64

	// ScoreErr, if non-nil, is returned as the error from Score.
	ScoreErr error

	// NameValue is returned by Name. Defaults to "mock".
	NameValue string

	// ScoreCalls records every call to Score in order.
	ScoreCalls []ScoreCall
}

// Score records the call and returns ScoreResult, ScoreErr.
func (p *Provider) Score(ctx context.Context, audio []byte, referenceText string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(audio))
	copy(cp, audio)
	p.ScoreCalls = append(p.ScoreCalls, ScoreCall{Ctx: ctx, Audio: cp, ReferenceText: referenceText})
	if p.ScoreErr != nil {
		return 0, p.ScoreErr
	}
	return p.ScoreResult, nil
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
	p.ScoreCalls = nil
}

// Ensure Provider implements quality.Provider at compile time.
var _ quality.Provider = (*Provider)(nil)
