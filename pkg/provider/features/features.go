// Package features defines the acoustic feature extraction provider
// interface.
//
// A features provider measures the raw prosodic signals of an utterance
// (pitch statistics, intensity, speaking rate, pauses) plus per-vowel
// acoustics for each reference word. Interpretation of the measurements
// happens locally in pkg/prosody.
package features

import (
	"context"

	"github.com/MrWong99/elocute/pkg/prosody"
)

// Extraction is the result of one feature extraction call.
type Extraction struct {
	// Features holds the utterance-level measurements.
	Features prosody.Features

	// Words holds per-vowel measurements for each reference word the
	// extractor could locate in the audio. May be empty.
	Words []prosody.WordAcoustics
}

// Provider extracts acoustic features. Implementations must be safe for
// concurrent use and classify failures as *provider.Error values.
type Provider interface {
	// Extract measures the audio. words lists the normalized reference words
	// in text order so the extractor can attribute vowel spans.
	Extract(ctx context.Context, audio []byte, words []string) (Extraction, error)

	// Name identifies the provider in logs, metrics and errors.
	Name() string
}
