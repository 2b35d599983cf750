// Package report defines the proficiency report produced by the analysis
// pipeline. The report is a plain data structure with stable JSON field
// names; producing identical inputs always yields a byte-identical encoding.
package report

import "github.com/MrWong99/elocute/pkg/align"

// OpCounts tallies alignment operations for one word or one utterance.
type OpCounts struct {
	Corrections   int `json:"corrections"`
	Substitutions int `json:"substitutions"`
	Deletions     int `json:"deletions"`
	Insertions    int `json:"insertions"`

	// StressMismatches counts corrections whose stress level differed.
	StressMismatches int `json:"stress_mismatches"`
}

// Total returns the total number of tallied operations.
func (c OpCounts) Total() int {
	return c.Corrections + c.Substitutions + c.Deletions + c.Insertions
}

// Add folds one alignment operation into the counts.
func (c *OpCounts) Add(op align.Op) {
	switch op.Kind {
	case align.Correction:
		c.Corrections++
		if op.StressMismatch {
			c.StressMismatches++
		}
	case align.Substitution:
		c.Substitutions++
	case align.Deletion:
		c.Deletions++
	case align.Insertion:
		c.Insertions++
	}
}

// WordResult is the per-word slice of the report.
type WordResult struct {
	// Word is the normalized reference word.
	Word string `json:"word"`

	// Reference is the canonical phoneme sequence, space separated.
	Reference string `json:"reference"`

	// Ops lists the alignment operations attributed to this word, in
	// reference order.
	Ops []align.Op `json:"ops"`

	// Counts tallies Ops.
	Counts OpCounts `json:"counts"`

	// Score is the per-word pronunciation score on the 1-5 scale.
	Score float64 `json:"score"`

	// Unresolvable marks words with no dictionary or guesser pronunciation;
	// such words carry no ops and are excluded from aggregate scores.
	Unresolvable bool `json:"unresolvable,omitempty"`

	// Unintelligible marks words whose phonemes were entirely deleted.
	Unintelligible bool `json:"unintelligible,omitempty"`

	// StressError marks words whose expected primary-stressed vowel did not
	// acoustically lead the other vowels.
	StressError bool `json:"stress_error,omitempty"`

	// EqualStress marks words whose vowels showed no intensity contrast.
	EqualStress bool `json:"equal_stress,omitempty"`
}

// Scores holds the utterance-level scores. Acoustic lives on the 0-100
// scale; every other dimension on 1-5. Segmental is a pointer: it is nil when
// no word produced a resolvable alignment, so "no evidence" is
// distinguishable from a floor score.
type Scores struct {
	Acoustic     float64  `json:"acoustic"`
	Holistic     float64  `json:"holistic"`
	Segmental    *float64 `json:"segmental"`
	StressRhythm float64  `json:"stress_rhythm"`
	Intonation   float64  `json:"intonation"`
	SpeedPause   float64  `json:"speed_pause"`
	Chunking     float64  `json:"chunking"`
}

// ProficiencyReport is the full output of one analysis.
type ProficiencyReport struct {
	// ReferenceText is the expected practice text.
	ReferenceText string `json:"reference_text"`

	// RecognizedText is the recognizer transcript of the learner audio.
	RecognizedText string `json:"recognized_text"`

	// Words holds one entry per reference word, in text order.
	Words []WordResult `json:"words"`

	// Counts tallies operations across all resolvable words.
	Counts OpCounts `json:"counts"`

	// Scores holds the utterance-level scores.
	Scores Scores `json:"scores"`

	// ProsodyIssues lists the prosody problems detected for the utterance.
	ProsodyIssues []string `json:"prosody_issues,omitempty"`

	// Comment is a one-line overall assessment derived from the holistic
	// score band.
	Comment string `json:"comment"`
}

// Comment bands for the holistic score.
const (
	CommentExcellent        = "Excellent pronunciation"
	CommentGood             = "Good pronunciation with minor issues"
	CommentFair             = "Fair pronunciation, keep practicing"
	CommentNeedsImprovement = "Pronunciation needs improvement"
)

// CommentFor maps a holistic score to its assessment band.
func CommentFor(holistic float64) string {
	switch {
	case holistic >= 4.5:
		return CommentExcellent
	case holistic >= 4.0:
		return CommentGood
	case holistic >= 3.0:
		return CommentFair
	default:
		return CommentNeedsImprovement
	}
}
