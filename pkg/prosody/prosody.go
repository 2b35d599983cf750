// Package prosody interprets scalar acoustic measurements as categorical
// prosody judgments.
//
// The measurements themselves come from an external acoustic-feature
// extractor; this package never touches audio. Interpretation is a pure
// function over a [Thresholds] value — all cut-offs are named configuration,
// not literals buried in the classification logic, so they can be tuned and
// tested independently.
package prosody

import "fmt"

// Features is an immutable bundle of scalar acoustic measurements for one
// utterance, supplied by an external analyzer.
type Features struct {
	// MeanF0 is the mean fundamental frequency in Hz over voiced frames.
	MeanF0 float64 `json:"mean_f0"`

	// StdF0 is the standard deviation of F0 in Hz.
	StdF0 float64 `json:"std_f0"`

	// RangeF0 is max F0 minus min F0 in Hz.
	RangeF0 float64 `json:"range_f0"`

	// MeanIntensity is the mean intensity in dB.
	MeanIntensity float64 `json:"mean_intensity"`

	// RangeIntensity is max intensity minus mean intensity in dB.
	RangeIntensity float64 `json:"range_intensity"`

	// SpeakingRate is the estimated speaking rate in syllables per second.
	SpeakingRate float64 `json:"speaking_rate"`

	// Duration is the total utterance duration in seconds.
	Duration float64 `json:"duration"`

	// PauseCount is the number of detected silent pauses.
	PauseCount int `json:"pause_count"`

	// EndF0Slope is the F0 slope in Hz/s over the final stretch of the
	// utterance; positive values indicate rising pitch at the end.
	EndF0Slope float64 `json:"end_f0_slope"`
}

// VowelSample holds the acoustic measurements for one vowel phoneme's
// approximate span within a word.
type VowelSample struct {
	// Index is the vowel's position in the word's canonical phoneme sequence.
	Index int `json:"index"`

	// Duration is the vowel span duration in seconds.
	Duration float64 `json:"duration"`

	// Intensity is the mean intensity over the span in dB.
	Intensity float64 `json:"intensity"`

	// Pitch is the mean F0 over the span in Hz; 0 when unvoiced.
	Pitch float64 `json:"pitch"`
}

// WordAcoustics carries per-vowel measurements for one reference word, used
// by stress-error detection. Supplied by the external feature extractor;
// may be absent, in which case stress flags stay unset.
type WordAcoustics struct {
	// Word is the normalized reference word these measurements belong to.
	Word string `json:"word"`

	// Vowels lists one sample per vowel of the word's canonical sequence,
	// in sequence order.
	Vowels []VowelSample `json:"vowels"`
}

// PitchVariation categorizes the amount of pitch movement in an utterance.
type PitchVariation string

const (
	PitchMonotonous  PitchVariation = "monotonous"
	PitchLimited     PitchVariation = "limited"
	PitchVaried      PitchVariation = "varied"
	PitchExaggerated PitchVariation = "exaggerated"
)

// Rate categorizes speaking speed.
type Rate string

const (
	RateTooSlow Rate = "too_slow"
	RateNormal  Rate = "normal"
	RateTooFast Rate = "too_fast"
)

// Ending categorizes the pitch pattern at the end of the utterance.
type Ending string

const (
	EndingNormal  Ending = "normal"
	EndingRising  Ending = "rising"
	EndingFalling Ending = "falling"
)

// Judgments is the categorical output of [Interpret].
type Judgments struct {
	// PitchVariation classifies F0 variability.
	PitchVariation PitchVariation `json:"pitch_variation"`

	// Rate classifies speaking speed.
	Rate Rate `json:"rate"`

	// Ending classifies the sentence-final pitch movement.
	Ending Ending `json:"ending"`

	// NarrowRange and WideRange flag an F0 range outside the normal band.
	NarrowRange bool `json:"narrow_range,omitempty"`
	WideRange   bool `json:"wide_range,omitempty"`

	// Issues lists human-readable prosody problems; the score aggregator
	// applies a penalty per issue.
	Issues []string `json:"issues,omitempty"`
}

// Thresholds holds every cut-off used by [Interpret]. Zero values are not
// meaningful; start from [DefaultThresholds].
type Thresholds struct {
	// MonotonousMaxStdF0: StdF0 below this is monotonous. Default 15 Hz.
	MonotonousMaxStdF0 float64 `yaml:"monotonous_max_std_f0"`

	// VariedMinStdF0 / VariedMaxStdF0 bound the "varied" band (exclusive).
	// Defaults 20 and 80 Hz; StdF0 between MonotonousMaxStdF0 and
	// VariedMinStdF0 is "limited", above VariedMaxStdF0 "exaggerated".
	VariedMinStdF0 float64 `yaml:"varied_min_std_f0"`
	VariedMaxStdF0 float64 `yaml:"varied_max_std_f0"`

	// NarrowRangeF0: RangeF0 below this raises a narrow-pitch-range issue.
	// Default 30 Hz.
	NarrowRangeF0 float64 `yaml:"narrow_range_f0"`

	// WideRangeF0: RangeF0 above this raises an erratic-pitch issue.
	// Default 300 Hz.
	WideRangeF0 float64 `yaml:"wide_range_f0"`

	// SlowMaxRate / FastMinRate bound normal speaking rate in syllables per
	// second. Defaults 2 and 6.
	SlowMaxRate float64 `yaml:"slow_max_rate"`
	FastMinRate float64 `yaml:"fast_min_rate"`

	// EndSlopeHz: absolute EndF0Slope above this marks a rising or falling
	// sentence ending. Default 25 Hz/s.
	EndSlopeHz float64 `yaml:"end_slope_hz"`
}

// DefaultThresholds returns the documented default cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MonotonousMaxStdF0: 15,
		VariedMinStdF0:     20,
		VariedMaxStdF0:     80,
		NarrowRangeF0:      30,
		WideRangeF0:        300,
		SlowMaxRate:        2,
		FastMinRate:        6,
		EndSlopeHz:         25,
	}
}

// Validate checks that the thresholds are coherent.
func (t Thresholds) Validate() error {
	if t.MonotonousMaxStdF0 <= 0 || t.VariedMinStdF0 < t.MonotonousMaxStdF0 || t.VariedMaxStdF0 <= t.VariedMinStdF0 {
		return fmt.Errorf("prosody: std-f0 bands must satisfy 0 < monotonous ≤ varied_min < varied_max, got %.1f/%.1f/%.1f",
			t.MonotonousMaxStdF0, t.VariedMinStdF0, t.VariedMaxStdF0)
	}
	if t.SlowMaxRate <= 0 || t.FastMinRate <= t.SlowMaxRate {
		return fmt.Errorf("prosody: rate bands must satisfy 0 < slow_max < fast_min, got %.1f/%.1f", t.SlowMaxRate, t.FastMinRate)
	}
	if t.NarrowRangeF0 < 0 || t.WideRangeF0 <= t.NarrowRangeF0 {
		return fmt.Errorf("prosody: range bands must satisfy 0 ≤ narrow < wide, got %.1f/%.1f", t.NarrowRangeF0, t.WideRangeF0)
	}
	if t.EndSlopeHz <= 0 {
		return fmt.Errorf("prosody: end_slope_hz must be positive, got %.1f", t.EndSlopeHz)
	}
	return nil
}

// Interpret maps features to categorical judgments using the given
// thresholds. Pure function: no side effects, no hidden state, identical
// inputs always yield identical judgments.
func Interpret(f Features, t Thresholds) Judgments {
	j := Judgments{}

	switch {
	case f.StdF0 < t.MonotonousMaxStdF0:
		j.PitchVariation = PitchMonotonous
		j.Issues = append(j.Issues, "monotonous speech: very little pitch variation")
	case f.StdF0 < t.VariedMinStdF0:
		j.PitchVariation = PitchLimited
		j.Issues = append(j.Issues, "limited pitch variation: weak stress patterns")
	case f.StdF0 <= t.VariedMaxStdF0:
		j.PitchVariation = PitchVaried
	default:
		j.PitchVariation = PitchExaggerated
	}

	if f.RangeF0 < t.NarrowRangeF0 {
		j.NarrowRange = true
		j.Issues = append(j.Issues, "very narrow pitch range: lacks expressiveness")
	} else if f.RangeF0 > t.WideRangeF0 {
		j.WideRange = true
		j.Issues = append(j.Issues, "unusually wide pitch range: try to be more consistent")
	}

	switch {
	case f.SpeakingRate > 0 && f.SpeakingRate < t.SlowMaxRate:
		j.Rate = RateTooSlow
		j.Issues = append(j.Issues, "speaking too slowly: lacks fluency")
	case f.SpeakingRate > t.FastMinRate:
		j.Rate = RateTooFast
		j.Issues = append(j.Issues, "speaking too fast: may affect clarity")
	default:
		j.Rate = RateNormal
	}

	switch {
	case f.EndF0Slope > t.EndSlopeHz:
		j.Ending = EndingRising
	case f.EndF0Slope < -t.EndSlopeHz:
		j.Ending = EndingFalling
	default:
		j.Ending = EndingNormal
	}

	return j
}
