package score

import (
	"gonum.org/v1/gonum/stat"

	"github.com/MrWong99/elocute/pkg/align"
	"github.com/MrWong99/elocute/pkg/lexicon"
	"github.com/MrWong99/elocute/pkg/prosody"
	"github.com/MrWong99/elocute/pkg/report"
)

// ClassifyWord turns one word's lookup result, alignment operations and
// optional acoustics into a WordResult.
//
// Unresolvable words carry no ops and no score. A word whose reference
// phonemes were all deleted is unintelligible and floors at 1. Otherwise the
// score is 1 + 4 * corrections/total, so an error-free word scores 5.
func ClassifyWord(res lexicon.Result, ops []align.Op, ac *prosody.WordAcoustics, cfg Config) report.WordResult {
	wr := report.WordResult{
		Word:      res.Word,
		Reference: res.Canonical.String(),
		Ops:       ops,
	}
	if res.Unresolvable {
		wr.Unresolvable = true
		return wr
	}

	for _, op := range ops {
		wr.Counts.Add(op)
	}
	total := wr.Counts.Total()
	if total == 0 {
		// Empty alignment: no evidence either way. The aggregator excludes
		// such words from the segmental score.
		return wr
	}

	wr.Unintelligible = len(res.Canonical) > 0 && wr.Counts.Deletions == len(res.Canonical)
	wr.Score = 1 + 4*float64(wr.Counts.Corrections)/float64(total)

	wr.StressError, wr.EqualStress = stressJudgments(res, ac, cfg)
	return wr
}

// stressJudgments derives the word's stress flags from the measured vowels.
// Equal stress is a pure intensity-uniformity check over all measured vowels,
// raised regardless of where (or whether) the canonical form puts the primary
// stress. A stress error is only judged when the canonical form marks exactly
// one vowel as primary-stressed and that vowel was measured; the expected
// vowel must then lead at least one other vowel in intensity, duration, or
// pitch. Fewer than two measured vowels yields no flags.
func stressJudgments(res lexicon.Result, ac *prosody.WordAcoustics, cfg Config) (stressError, equalStress bool) {
	if ac == nil || len(ac.Vowels) < 2 {
		return false, false
	}

	intensities := make([]float64, 0, len(ac.Vowels))
	for _, v := range ac.Vowels {
		intensities = append(intensities, v.Intensity)
	}
	equalStress = stat.StdDev(intensities, nil) < cfg.EqualStressStdDB

	primaries := res.Canonical.PrimaryStressed()
	if len(primaries) != 1 {
		// Compound-stress or fully unstressed forms have no single expected
		// peak to test against.
		return false, equalStress
	}

	// Map the primary-stressed phoneme index to its vowel ordinal, which is
	// how VowelSample.Index is keyed.
	ordinal := -1
	for o, i := range res.Canonical.Vowels() {
		if i == primaries[0] {
			ordinal = o
			break
		}
	}
	if ordinal < 0 {
		return false, equalStress
	}

	var primarySample *prosody.VowelSample
	others := make([]prosody.VowelSample, 0, len(ac.Vowels)-1)
	for i := range ac.Vowels {
		if ac.Vowels[i].Index == ordinal {
			primarySample = &ac.Vowels[i]
		} else {
			others = append(others, ac.Vowels[i])
		}
	}
	if primarySample == nil || len(others) == 0 {
		return false, equalStress
	}

	for _, o := range others {
		byIntensity := primarySample.Intensity >= o.Intensity+cfg.IntensityLeadDB
		byDuration := o.Duration > 0 && primarySample.Duration/o.Duration >= cfg.DurationLeadRatio
		byPitch := primarySample.Pitch > 0 && o.Pitch > 0 && primarySample.Pitch >= o.Pitch+cfg.PitchLeadHz
		if byIntensity || byDuration || byPitch {
			return false, equalStress
		}
	}
	return true, equalStress
}
