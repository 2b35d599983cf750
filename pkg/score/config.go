// Package score classifies alignment results into per-word pronunciation
// errors and aggregates them into a proficiency report.
//
// Dimension scales follow the report conventions: the acoustic score lives on
// 0-100, every other dimension on 1-5. Aggregation is deterministic: no
// clocks, no randomness, no map-order iteration feeds any score.
package score

import "fmt"

// Config holds every tunable used by classification and aggregation. Zero
// values are not meaningful; start from [DefaultConfig].
type Config struct {
	// Goodness-of-pronunciation weights per alignment operation. Each weight
	// is the per-op contribution in [0, 1]; a perfect utterance averages
	// WeightCorrection.
	WeightCorrection     float64 `yaml:"weight_correction"`
	WeightStressMismatch float64 `yaml:"weight_stress_mismatch"`
	WeightSubstitution   float64 `yaml:"weight_substitution"`
	WeightInsertion      float64 `yaml:"weight_insertion"`
	WeightDeletion       float64 `yaml:"weight_deletion"`

	// ExternalBlend and LocalBlend weight the external quality score against
	// the locally computed goodness score in the acoustic score. Must sum
	// to 1.
	ExternalBlend float64 `yaml:"external_blend"`
	LocalBlend    float64 `yaml:"local_blend"`

	// Stress-error margins. The expected primary-stressed vowel must lead
	// another vowel of the word in at least one dimension to count as
	// correctly stressed.
	IntensityLeadDB   float64 `yaml:"intensity_lead_db"`
	DurationLeadRatio float64 `yaml:"duration_lead_ratio"`
	PitchLeadHz       float64 `yaml:"pitch_lead_hz"`

	// EqualStressStdDB: a per-word vowel intensity standard deviation below
	// this marks the word as spoken with equal stress.
	EqualStressStdDB float64 `yaml:"equal_stress_std_db"`

	// IssuePenalty is subtracted from the stress and intonation band scores
	// once per detected issue; banded scores never drop below 1.
	IssuePenalty float64 `yaml:"issue_penalty"`

	// Stress and rhythm bands over the F0 standard deviation (Hz). Inside
	// the good band scores 4.0, inside the fair band 3.5, otherwise 3.0.
	StressStdGoodLow  float64 `yaml:"stress_std_good_low"`
	StressStdGoodHigh float64 `yaml:"stress_std_good_high"`
	StressStdFairLow  float64 `yaml:"stress_std_fair_low"`
	StressStdFairHigh float64 `yaml:"stress_std_fair_high"`

	// Intonation bands over the F0 range (Hz). Above the good threshold
	// scores 4.0, above the fair threshold 3.5, otherwise 3.0.
	IntonationRangeGood float64 `yaml:"intonation_range_good"`
	IntonationRangeFair float64 `yaml:"intonation_range_fair"`

	// Speaking rate bands (syllables per second). Inside the optimal band
	// scores 4.5, inside the acceptable band 3.5, otherwise 2.5.
	OptimalRateLow     float64 `yaml:"optimal_rate_low"`
	OptimalRateHigh    float64 `yaml:"optimal_rate_high"`
	AcceptableRateLow  float64 `yaml:"acceptable_rate_low"`
	AcceptableRateHigh float64 `yaml:"acceptable_rate_high"`

	// Chunking band over the pause rate (pauses per second). Inside the band
	// scores 4.0, otherwise 3.5.
	PauseRateLow  float64 `yaml:"pause_rate_low"`
	PauseRateHigh float64 `yaml:"pause_rate_high"`
}

// DefaultConfig returns the documented default tuning.
func DefaultConfig() Config {
	return Config{
		WeightCorrection:     1.0,
		WeightStressMismatch: 0.9,
		WeightSubstitution:   0.3,
		WeightInsertion:      0.5,
		WeightDeletion:       0.2,
		ExternalBlend:        0.7,
		LocalBlend:           0.3,
		IntensityLeadDB:      3.0,
		DurationLeadRatio:    1.2,
		PitchLeadHz:          20.0,
		EqualStressStdDB:     3.0,
		IssuePenalty:         0.3,
		StressStdGoodLow:     20,
		StressStdGoodHigh:    80,
		StressStdFairLow:     10,
		StressStdFairHigh:    100,
		IntonationRangeGood:  100,
		IntonationRangeFair:  50,
		OptimalRateLow:       3,
		OptimalRateHigh:      5,
		AcceptableRateLow:    2,
		AcceptableRateHigh:   6,
		PauseRateLow:         0.5,
		PauseRateHigh:        2.0,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"weight_correction":      c.WeightCorrection,
		"weight_stress_mismatch": c.WeightStressMismatch,
		"weight_substitution":    c.WeightSubstitution,
		"weight_insertion":       c.WeightInsertion,
		"weight_deletion":        c.WeightDeletion,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("score: %s must be in [0, 1], got %.2f", name, w)
		}
	}
	if c.WeightCorrection != 1 {
		return fmt.Errorf("score: weight_correction must be 1 so a perfect utterance scores full marks, got %.2f", c.WeightCorrection)
	}
	if sum := c.ExternalBlend + c.LocalBlend; c.ExternalBlend < 0 || c.LocalBlend < 0 || !almostOne(sum) {
		return fmt.Errorf("score: external_blend and local_blend must be non-negative and sum to 1, got %.2f + %.2f", c.ExternalBlend, c.LocalBlend)
	}
	if c.IntensityLeadDB <= 0 || c.PitchLeadHz <= 0 || c.DurationLeadRatio <= 1 {
		return fmt.Errorf("score: stress margins must be positive (duration ratio > 1), got %.1f dB / %.2f / %.1f Hz",
			c.IntensityLeadDB, c.DurationLeadRatio, c.PitchLeadHz)
	}
	if c.EqualStressStdDB <= 0 {
		return fmt.Errorf("score: equal_stress_std_db must be positive, got %.2f", c.EqualStressStdDB)
	}
	if c.IssuePenalty <= 0 || c.IssuePenalty > 4 {
		return fmt.Errorf("score: issue_penalty must be in (0, 4], got %.2f", c.IssuePenalty)
	}
	if !(c.StressStdFairLow >= 0 && c.StressStdFairLow <= c.StressStdGoodLow &&
		c.StressStdGoodLow < c.StressStdGoodHigh && c.StressStdGoodHigh <= c.StressStdFairHigh) {
		return fmt.Errorf("score: stress std bands must nest (fair_low <= good_low < good_high <= fair_high), got %.0f/%.0f/%.0f/%.0f",
			c.StressStdFairLow, c.StressStdGoodLow, c.StressStdGoodHigh, c.StressStdFairHigh)
	}
	if !(c.IntonationRangeFair > 0 && c.IntonationRangeFair < c.IntonationRangeGood) {
		return fmt.Errorf("score: intonation range thresholds must satisfy 0 < fair < good, got %.0f/%.0f",
			c.IntonationRangeFair, c.IntonationRangeGood)
	}
	if !(c.AcceptableRateLow > 0 && c.AcceptableRateLow <= c.OptimalRateLow &&
		c.OptimalRateLow < c.OptimalRateHigh && c.OptimalRateHigh <= c.AcceptableRateHigh) {
		return fmt.Errorf("score: rate bands must nest (acceptable_low <= optimal_low < optimal_high <= acceptable_high), got %.1f/%.1f/%.1f/%.1f",
			c.AcceptableRateLow, c.OptimalRateLow, c.OptimalRateHigh, c.AcceptableRateHigh)
	}
	if !(c.PauseRateLow > 0 && c.PauseRateLow < c.PauseRateHigh) {
		return fmt.Errorf("score: pause rate band must satisfy 0 < low < high, got %.2f/%.2f",
			c.PauseRateLow, c.PauseRateHigh)
	}
	return nil
}

func almostOne(v float64) bool {
	const eps = 1e-9
	return v > 1-eps && v < 1+eps
}
