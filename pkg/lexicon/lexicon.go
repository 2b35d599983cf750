// Package lexicon maps reference words to canonical phoneme sequences with
// stress markers.
//
// The primary source is a static pronunciation dictionary in the CMU
// pronouncing dictionary format. A word may list several pronunciation
// variants; the first listed variant is always the canonical one — selection
// is deterministic, never probabilistic. Words absent from the dictionary
// fall back to an optional grapheme-to-phoneme [Guesser], whose output is
// best-effort and carries no stress-accuracy guarantee.
//
// A Lexicon is immutable after construction and safe for concurrent use; the
// intended deployment is one process-wide instance shared across requests.
package lexicon

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/MrWong99/elocute/pkg/phoneme"
)

//go:embed cmudict_base.dict
var embeddedDict []byte

// Source identifies where a lookup result came from.
type Source uint8

const (
	// SourceDictionary means the word was found in the static dictionary.
	SourceDictionary Source = iota

	// SourceGuesser means the word came from the fallback G2P guesser.
	SourceGuesser

	// SourceNone means neither source produced a pronunciation.
	SourceNone
)

// String returns the lowercase name of the source.
func (s Source) String() string {
	switch s {
	case SourceDictionary:
		return "dictionary"
	case SourceGuesser:
		return "guesser"
	default:
		return "none"
	}
}

// Guesser generates a best-effort phoneme sequence for a word absent from the
// static dictionary. Implementations must be safe for concurrent use.
type Guesser interface {
	// Guess returns a phoneme sequence for word, or an error when the word
	// cannot be converted at all. Stress markers in the result are not
	// guaranteed to be accurate.
	Guess(word string) (phoneme.Sequence, error)
}

// Result is the outcome of a single word lookup.
type Result struct {
	// Word is the normalized form that was looked up (lowercase, stripped
	// of punctuation).
	Word string

	// Canonical is the canonical phoneme sequence. Empty when Unresolvable.
	Canonical phoneme.Sequence

	// Source records which source produced Canonical.
	Source Source

	// Unresolvable is set when both the dictionary and the guesser failed.
	// Downstream scoring must exclude the word from aggregates rather than
	// score it as zero.
	Unresolvable bool
}

// Option is a functional option for [New].
type Option func(*Lexicon)

// WithGuesser attaches a fallback grapheme-to-phoneme guesser consulted for
// words absent from the static dictionary. Default: no guesser.
func WithGuesser(g Guesser) Option {
	return func(l *Lexicon) {
		l.guesser = g
	}
}

// Lexicon is an immutable word → pronunciation table with an optional G2P
// fallback. Safe for concurrent use after construction.
type Lexicon struct {
	entries map[string][]phoneme.Sequence
	guesser Guesser
}

// New builds a Lexicon from the embedded base dictionary.
func New(opts ...Option) (*Lexicon, error) {
	return NewFromReader(bytes.NewReader(embeddedDict), opts...)
}

// NewFromReader builds a Lexicon by parsing a CMU-format dictionary from r.
//
// Accepted line format:
//
//	WORD  P1 P2 P3 ...
//	WORD(2)  P1 P2 ...
//
// Lines starting with ";;;" are comments. Variant suffixes "(n)" group
// alternative pronunciations under the same word; variants are kept in file
// order and the first becomes canonical.
func NewFromReader(r io.Reader, opts ...Option) (*Lexicon, error) {
	l := &Lexicon{entries: make(map[string][]phoneme.Sequence)}
	for _, o := range opts {
		o(l)
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("lexicon: line %d: expected word and phonemes, got %q", lineNum, line)
		}
		word := fields[0]
		if i := strings.IndexByte(word, '('); i > 0 {
			word = word[:i]
		}
		word = strings.ToLower(word)
		l.entries[word] = append(l.entries[word], phoneme.ParseTokens(fields[1:]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: read dictionary: %w", err)
	}
	return l, nil
}

// Len returns the number of distinct words in the dictionary.
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// Normalize lowercases word and strips everything except letters, digits, and
// apostrophes. This is the only normalization performed; homographs with
// context-dependent pronunciation are not disambiguated.
func Normalize(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup resolves word to its canonical phoneme sequence.
//
// Resolution order: static dictionary (first listed variant), then the
// fallback guesser. When both fail — or the word normalizes to something with
// no resolvable letters — the result is marked Unresolvable with an empty
// sequence.
func (l *Lexicon) Lookup(word string) Result {
	norm := Normalize(word)
	if norm == "" || !hasLetter(norm) {
		return Result{Word: norm, Source: SourceNone, Unresolvable: true}
	}

	if variants, ok := l.entries[norm]; ok && len(variants) > 0 {
		return Result{Word: norm, Canonical: variants[0], Source: SourceDictionary}
	}

	if l.guesser != nil {
		seq, err := l.guesser.Guess(norm)
		if err == nil && len(seq) > 0 {
			return Result{Word: norm, Canonical: seq, Source: SourceGuesser}
		}
	}

	return Result{Word: norm, Source: SourceNone, Unresolvable: true}
}

// Variants returns all pronunciation variants for word in dictionary order,
// or nil when the word is absent. The canonical variant is element 0.
func (l *Lexicon) Variants(word string) []phoneme.Sequence {
	return l.entries[Normalize(word)]
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}
