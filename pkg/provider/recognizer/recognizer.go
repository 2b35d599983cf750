// Package recognizer defines the speech recognition provider interface.
//
// A recognizer turns learner audio into plain text. The pipeline derives the
// predicted phoneme sequence from that text through the same lexicon path
// used for the reference text, so recognizers do not need phoneme-level
// output.
package recognizer

import "context"

// Transcript is the result of one transcription call.
type Transcript struct {
	// Text is the recognized utterance text.
	Text string

	// Language is the detected or configured language code, when known.
	Language string

	// Duration is the audio duration in seconds, when the backend reports it.
	Duration float64
}

// Provider transcribes audio. Implementations must be safe for concurrent
// use and classify failures as *provider.Error values.
type Provider interface {
	// Transcribe converts the audio payload into text. The payload is a
	// complete encoded audio file (e.g. WAV); streaming is out of scope.
	Transcribe(ctx context.Context, audio []byte) (Transcript, error)

	// Name identifies the provider in logs, metrics and errors.
	Name() string
}
