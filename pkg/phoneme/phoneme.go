// Package phoneme defines the immutable phoneme value types used throughout
// the analysis pipeline.
//
// Phonemes are represented as ARPAbet-style tokens: an uppercase base symbol
// optionally followed by a single stress digit on vowels ("AA1", "ER0", "K").
// The digit encodes lexical stress: 0 = unstressed, 1 = primary, 2 = secondary.
// Consonants carry no stress marker. Tokens produced by fallback
// grapheme-to-phoneme sources may use other symbol inventories (e.g. IPA);
// the pipeline treats all symbols as opaque and only compares them for
// equality.
package phoneme

import "strings"

// Stress is the lexical stress level carried by a vowel phoneme.
type Stress int8

const (
	// StressNone marks phonemes without a stress digit (consonants, or
	// symbols from sources that do not annotate stress).
	StressNone Stress = iota

	// StressUnstressed is an unstressed vowel (ARPAbet digit 0).
	StressUnstressed

	// StressPrimary is the primary-stressed vowel of a word (digit 1).
	StressPrimary

	// StressSecondary is a secondary-stressed vowel (digit 2).
	StressSecondary
)

// String returns the ARPAbet digit for the stress level, or the empty string
// for StressNone.
func (s Stress) String() string {
	switch s {
	case StressUnstressed:
		return "0"
	case StressPrimary:
		return "1"
	case StressSecondary:
		return "2"
	default:
		return ""
	}
}

// arpabetVowels is the set of ARPAbet vowel base symbols. Vowels are the
// stress-bearing units; the pipeline uses one vowel per syllable as its
// syllable count approximation.
var arpabetVowels = map[string]struct{}{
	"AA": {}, "AE": {}, "AH": {}, "AO": {}, "AW": {}, "AX": {}, "AXR": {},
	"AY": {}, "EH": {}, "ER": {}, "EY": {}, "IH": {}, "IX": {}, "IY": {},
	"OW": {}, "OY": {}, "UH": {}, "UW": {}, "UX": {},
}

// Phoneme is a single immutable phoneme value: a base symbol plus an optional
// stress level. The zero value is the absent phoneme (empty symbol), used by
// alignment operations that have no reference or no predicted side.
type Phoneme struct {
	// Symbol is the base symbol without any stress digit, e.g. "AA".
	Symbol string

	// Stress is the stress level encoded by the token's suffix digit.
	Stress Stress
}

// Parse converts an ARPAbet-style token such as "AA1" or "K" into a Phoneme.
// A trailing digit 0–2 is interpreted as the stress level; anything else is
// kept verbatim as the base symbol.
func Parse(token string) Phoneme {
	if token == "" {
		return Phoneme{}
	}
	last := token[len(token)-1]
	if last >= '0' && last <= '2' && len(token) > 1 {
		return Phoneme{
			Symbol: token[:len(token)-1],
			Stress: Stress(last-'0') + StressUnstressed,
		}
	}
	return Phoneme{Symbol: token}
}

// String reassembles the ARPAbet token, e.g. {"AA", primary} → "AA1".
func (p Phoneme) String() string {
	return p.Symbol + p.Stress.String()
}

// IsZero reports whether p is the absent phoneme.
func (p Phoneme) IsZero() bool {
	return p.Symbol == ""
}

// MarshalText renders the phoneme as its ARPAbet token so it serializes as a
// plain string in JSON reports.
func (p Phoneme) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses an ARPAbet token.
func (p *Phoneme) UnmarshalText(text []byte) error {
	*p = Parse(string(text))
	return nil
}

// IsVowel reports whether p's base symbol is an ARPAbet vowel or the symbol
// carries a stress digit (fallback sources may emit non-ARPAbet vowels but
// still mark stress).
func (p Phoneme) IsVowel() bool {
	if _, ok := arpabetVowels[p.Symbol]; ok {
		return true
	}
	return p.Stress != StressNone
}

// BaseEqual reports whether p and o share the same base symbol, ignoring
// stress. This is the equality used by the aligner: a stress-digit mismatch
// on a matching base symbol is still a match.
func (p Phoneme) BaseEqual(o Phoneme) bool {
	return p.Symbol == o.Symbol
}

// Sequence is an ordered, immutable-by-convention sequence of phonemes.
// Sequences are produced once per word or utterance and never mutated after
// creation.
type Sequence []Phoneme

// ParseTokens converts a slice of ARPAbet tokens into a Sequence.
func ParseTokens(tokens []string) Sequence {
	seq := make(Sequence, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		seq = append(seq, Parse(t))
	}
	return seq
}

// ParseString converts a space-separated token string ("S AA1 K ER0") into a
// Sequence.
func ParseString(s string) Sequence {
	return ParseTokens(strings.Fields(s))
}

// String renders the sequence as space-separated ARPAbet tokens.
func (s Sequence) String() string {
	var b strings.Builder
	for i, p := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// Tokens returns the sequence as a slice of ARPAbet token strings.
func (s Sequence) Tokens() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.String()
	}
	return out
}

// Vowels returns the indices of all vowel phonemes, in order.
func (s Sequence) Vowels() []int {
	var idx []int
	for i, p := range s {
		if p.IsVowel() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Syllables approximates the syllable count as the number of vowel phonemes.
func (s Sequence) Syllables() int {
	n := 0
	for _, p := range s {
		if p.IsVowel() {
			n++
		}
	}
	return n
}

// PrimaryStressed returns the indices of phonemes carrying primary stress.
func (s Sequence) PrimaryStressed() []int {
	var idx []int
	for i, p := range s {
		if p.Stress == StressPrimary {
			idx = append(idx, i)
		}
	}
	return idx
}
