package score

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/elocute/pkg/align"
	"github.com/MrWong99/elocute/pkg/lexicon"
	"github.com/MrWong99/elocute/pkg/prosody"
	"github.com/MrWong99/elocute/pkg/report"
)

// Band score values for the prosody-driven dimensions.
const (
	bandGood = 4.0
	bandFair = 3.5
	bandPoor = 3.0

	rateOptimal    = 4.5
	rateAcceptable = 3.5
	ratePoor       = 2.5

	chunkGood = 4.0
	chunkFair = 3.5
)

// WordInput bundles everything the aggregator needs about one reference word.
type WordInput struct {
	// Lookup is the pronunciation lookup result for the word.
	Lookup lexicon.Result

	// Ops are the alignment operations attributed to the word. Empty for
	// unresolvable words.
	Ops []align.Op

	// Acoustics carries the per-vowel measurements, when the feature
	// extractor produced them.
	Acoustics *prosody.WordAcoustics
}

// Inputs is the full set of evidence for one utterance.
type Inputs struct {
	// ReferenceText is the expected practice text.
	ReferenceText string

	// RecognizedText is the recognizer transcript of the learner audio.
	RecognizedText string

	// Words holds one entry per reference word, in text order.
	Words []WordInput

	// Quality is the external acoustic quality score on the 0-100 scale.
	Quality float64

	// Features are the utterance-level prosodic measurements.
	Features prosody.Features

	// Judgments is the prosody interpretation of Features.
	Judgments prosody.Judgments
}

// Aggregate folds classified words, prosody evidence and the external quality
// score into the final proficiency report. Identical inputs yield an
// identical report, bit for bit.
func Aggregate(in Inputs, cfg Config) report.ProficiencyReport {
	r := report.ProficiencyReport{
		ReferenceText:  in.ReferenceText,
		RecognizedText: in.RecognizedText,
		Words:          make([]report.WordResult, 0, len(in.Words)),
	}

	var weightSum float64
	for _, w := range in.Words {
		wr := ClassifyWord(w.Lookup, w.Ops, w.Acoustics, cfg)
		r.Words = append(r.Words, wr)
		if wr.Unresolvable {
			continue
		}
		for _, op := range w.Ops {
			r.Counts.Add(op)
			weightSum += opWeight(op, cfg)
		}
	}

	total := r.Counts.Total()
	if total > 0 {
		seg := 1 + 4*float64(r.Counts.Corrections)/float64(total)
		r.Scores.Segmental = &seg
	}

	r.Scores.Acoustic = acousticScore(in.Quality, weightSum, total, cfg)
	r.Scores.Holistic = 1 + 4*textSimilarity(in.ReferenceText, in.RecognizedText)
	r.Scores.StressRhythm = stressRhythmScore(in.Features, r.Words, r.Counts.StressMismatches, cfg)
	r.Scores.Intonation = intonationScore(in.Features, in.Judgments, cfg)
	r.Scores.SpeedPause = speedPauseScore(in.Features, cfg)
	r.Scores.Chunking = chunkingScore(in.Features, cfg)

	if len(in.Judgments.Issues) > 0 {
		r.ProsodyIssues = append([]string(nil), in.Judgments.Issues...)
	}
	r.Comment = report.CommentFor(r.Scores.Holistic)
	return r
}

// opWeight returns the goodness-of-pronunciation contribution of one op.
func opWeight(op align.Op, cfg Config) float64 {
	switch op.Kind {
	case align.Correction:
		if op.StressMismatch {
			return cfg.WeightStressMismatch
		}
		return cfg.WeightCorrection
	case align.Substitution:
		return cfg.WeightSubstitution
	case align.Insertion:
		return cfg.WeightInsertion
	case align.Deletion:
		return cfg.WeightDeletion
	default:
		return 0
	}
}

// acousticScore blends the external quality score with the local
// goodness-of-pronunciation score, both on 0-100. With no resolvable
// operations the local side has no evidence and the external score stands
// alone.
func acousticScore(quality, weightSum float64, total int, cfg Config) float64 {
	if total == 0 {
		return clamp100(quality)
	}
	local := 100 * weightSum / float64(total)
	return clamp100(cfg.ExternalBlend*quality + cfg.LocalBlend*local)
}

// textSimilarity is the Levenshtein similarity ratio between the normalized
// texts, in [0, 1].
func textSimilarity(ref, rec string) float64 {
	a, b := normalizeText(ref), normalizeText(rec)
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	longest := max(len([]rune(a)), len([]rune(b)))
	return 1 - float64(dist)/float64(longest)
}

func normalizeText(s string) string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := lexicon.Normalize(f); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

// stressRhythmScore bands the F0 spread (moderate variation reads as healthy
// rhythm) and subtracts the issue penalty per word-level stress finding and
// per stress-mismatched phoneme.
func stressRhythmScore(f prosody.Features, words []report.WordResult, mismatches int, cfg Config) float64 {
	s := bandPoor
	switch {
	case f.StdF0 > cfg.StressStdGoodLow && f.StdF0 < cfg.StressStdGoodHigh:
		s = bandGood
	case f.StdF0 > cfg.StressStdFairLow && f.StdF0 < cfg.StressStdFairHigh:
		s = bandFair
	}
	issues := mismatches
	for _, w := range words {
		if w.StressError {
			issues++
		}
		if w.EqualStress {
			issues++
		}
	}
	return floor1(s - cfg.IssuePenalty*float64(issues))
}

// intonationScore bands the F0 range (wider reads as more expressive) and
// subtracts the issue penalty per judged prosody issue.
func intonationScore(f prosody.Features, j prosody.Judgments, cfg Config) float64 {
	s := bandPoor
	switch {
	case f.RangeF0 > cfg.IntonationRangeGood:
		s = bandGood
	case f.RangeF0 > cfg.IntonationRangeFair:
		s = bandFair
	}
	return floor1(s - cfg.IssuePenalty*float64(len(j.Issues)))
}

// speedPauseScore bands the syllable rate. An unmeasured rate yields the
// neutral fair score.
func speedPauseScore(f prosody.Features, cfg Config) float64 {
	switch {
	case f.SpeakingRate == 0:
		return rateAcceptable
	case f.SpeakingRate >= cfg.OptimalRateLow && f.SpeakingRate <= cfg.OptimalRateHigh:
		return rateOptimal
	case f.SpeakingRate >= cfg.AcceptableRateLow && f.SpeakingRate <= cfg.AcceptableRateHigh:
		return rateAcceptable
	default:
		return ratePoor
	}
}

// chunkingScore bands the pause rate: pausing neither too rarely nor
// constantly reads as well-chunked speech.
func chunkingScore(f prosody.Features, cfg Config) float64 {
	if f.Duration <= 0 {
		return chunkFair
	}
	rate := float64(f.PauseCount) / f.Duration
	if rate > cfg.PauseRateLow && rate < cfg.PauseRateHigh {
		return chunkGood
	}
	return chunkFair
}

func floor1(v float64) float64 {
	if v < 1 {
		return 1
	}
	return v
}

func clamp100(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
