// Package quality defines the external acoustic quality scoring provider
// interface.
//
// A quality provider rates how closely an audio recording of the reference
// text matches native-like pronunciation, on the 0-100 scale. The score
// aggregator blends this external judgment with the locally computed
// goodness-of-pronunciation score.
package quality

import "context"

// Provider scores pronunciation quality. Implementations must be safe for
// concurrent use and classify failures as *provider.Error values.
type Provider interface {
	// Score rates the audio against the reference text on the 0-100 scale.
	Score(ctx context.Context, audio []byte, referenceText string) (float64, error)

	// Name identifies the provider in logs, metrics and errors.
	Name() string
}
