// Package goruut implements the [lexicon.Guesser] interface using the goruut
// grapheme-to-phoneme engine.
//
// goruut phonemizes out-of-dictionary words into IPA. The IPA output is
// re-tokenized into the pipeline's opaque phoneme symbols: one symbol per IPA
// rune, with the IPA stress marks ˈ and ˌ folded into the stress level of the
// following vowel. Stress placement from this path is best-effort only — the
// dictionary remains the authoritative stress source.
package goruut

import (
	"fmt"
	"strings"

	"github.com/neurlang/goruut/lib"
	"github.com/neurlang/goruut/models/requests"

	"github.com/MrWong99/elocute/pkg/lexicon"
	"github.com/MrWong99/elocute/pkg/phoneme"
)

// DefaultLanguage is the goruut language used when none is configured.
const DefaultLanguage = "English"

// ipaVowels is the set of IPA vowel runes that can carry a stress mark.
const ipaVowels = "aeiouyæɑɒɔəɚɛɜɝɪʊʌʏøœɶɐɨʉɯɤɘɵ"

// Guesser converts words to phoneme sequences via goruut. Safe for concurrent
// use — the underlying phonemizer is read-only after construction.
type Guesser struct {
	p        *lib.Phonemizer
	language string
}

// Ensure Guesser satisfies the lexicon.Guesser interface at compile time.
var _ lexicon.Guesser = (*Guesser)(nil)

// Option is a functional option for [New].
type Option func(*Guesser)

// WithLanguage sets the goruut language model. Default: "English".
func WithLanguage(lang string) Option {
	return func(g *Guesser) {
		g.language = lang
	}
}

// New constructs a goruut-backed guesser. The phonemizer loads its models
// lazily on first use.
func New(opts ...Option) *Guesser {
	g := &Guesser{
		p:        lib.NewPhonemizer(nil),
		language: DefaultLanguage,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Guess phonemizes word and returns the resulting phoneme sequence.
// Returns an error when goruut produces no phonetic output.
func (g *Guesser) Guess(word string) (phoneme.Sequence, error) {
	resp := g.p.Sentence(requests.PhonemizeSentence{
		Language: g.language,
		Sentence: word,
	})

	var ipa strings.Builder
	for _, w := range resp.Words {
		ipa.WriteString(w.Phonetic)
	}
	seq := SequenceFromIPA(ipa.String())
	if len(seq) == 0 {
		return nil, fmt.Errorf("goruut: no phonemes for %q", word)
	}
	return seq, nil
}

// SequenceFromIPA tokenizes an IPA string into a phoneme sequence: one symbol
// per rune, stress marks attached to the next vowel, length marks and
// syllable separators dropped.
func SequenceFromIPA(ipa string) phoneme.Sequence {
	var seq phoneme.Sequence
	pending := phoneme.StressNone
	for _, r := range ipa {
		switch r {
		case 'ˈ':
			pending = phoneme.StressPrimary
			continue
		case 'ˌ':
			pending = phoneme.StressSecondary
			continue
		case 'ː', '.', ' ', '\t':
			continue
		}
		p := phoneme.Phoneme{Symbol: string(r)}
		if strings.ContainsRune(ipaVowels, r) {
			if pending != phoneme.StressNone {
				p.Stress = pending
				pending = phoneme.StressNone
			} else {
				p.Stress = phoneme.StressUnstressed
			}
		}
		seq = append(seq, p)
	}
	return seq
}
