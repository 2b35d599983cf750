// Package analyzer orchestrates the pronunciation analysis pipeline.
//
// One analysis fans out to the three external providers (speech recognition,
// acoustic quality scoring, feature extraction) concurrently, then runs the
// local core sequentially: lexicon lookup for the reference and recognized
// texts, utterance-level phoneme alignment, per-word attribution, prosody
// interpretation, and score aggregation. The local core is fully
// deterministic; all non-determinism lives behind the provider interfaces.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/pkg/align"
	"github.com/MrWong99/elocute/pkg/lexicon"
	"github.com/MrWong99/elocute/pkg/phoneme"
	"github.com/MrWong99/elocute/pkg/prosody"
	"github.com/MrWong99/elocute/pkg/provider"
	"github.com/MrWong99/elocute/pkg/provider/features"
	"github.com/MrWong99/elocute/pkg/provider/quality"
	"github.com/MrWong99/elocute/pkg/provider/recognizer"
	"github.com/MrWong99/elocute/pkg/report"
	"github.com/MrWong99/elocute/pkg/score"
)

// ErrInvalidInput marks requests rejected before any provider is contacted.
// Wrap with fmt.Errorf("...: %w", ErrInvalidInput) so transports can map it.
var ErrInvalidInput = errors.New("invalid input")

// maxAudioBytes caps the accepted audio payload. Learner recordings are short
// practice sentences; anything beyond this is a client error.
const maxAudioBytes = 25 << 20

// Request is one analysis request.
type Request struct {
	// ReferenceText is the practice text the learner was asked to read.
	ReferenceText string

	// Audio is the complete encoded recording (e.g. WAV) of the attempt.
	Audio []byte
}

// Analyzer runs the analysis pipeline. Safe for concurrent use.
type Analyzer struct {
	lex  *lexicon.Lexicon
	rec  recognizer.Provider
	qual quality.Provider
	feat features.Provider

	scoring    score.Config
	thresholds prosody.Thresholds
	metrics    *observe.Metrics
	log        *slog.Logger
}

// Option is a functional option for [New].
type Option func(*Analyzer)

// WithScoringConfig overrides the default scoring configuration.
func WithScoringConfig(cfg score.Config) Option {
	return func(a *Analyzer) {
		a.scoring = cfg
	}
}

// WithThresholds overrides the default prosody thresholds.
func WithThresholds(t prosody.Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// New constructs an Analyzer over the given lexicon and providers.
func New(lex *lexicon.Lexicon, rec recognizer.Provider, qual quality.Provider, feat features.Provider, opts ...Option) (*Analyzer, error) {
	if lex == nil {
		return nil, fmt.Errorf("analyzer: lexicon must not be nil")
	}
	if rec == nil || qual == nil || feat == nil {
		return nil, fmt.Errorf("analyzer: all three providers are required")
	}
	a := &Analyzer{
		lex:        lex,
		rec:        rec,
		qual:       qual,
		feat:       feat,
		scoring:    score.DefaultConfig(),
		thresholds: prosody.DefaultThresholds(),
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if err := a.scoring.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	if err := a.thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a, nil
}

// Analyze runs the full pipeline for one request. Provider failures abort the
// analysis and surface as classified provider errors; there are no retries.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (report.ProficiencyReport, error) {
	if err := validate(req); err != nil {
		a.metrics.RecordAnalysis(ctx, "invalid", 0)
		return report.ProficiencyReport{}, err
	}

	ctx, span := observe.StartSpan(ctx, "analyzer.Analyze")
	defer span.End()
	log := observe.Logger(ctx)

	start := time.Now()
	a.metrics.ActiveAnalyses.Add(ctx, 1)
	defer a.metrics.ActiveAnalyses.Add(ctx, -1)

	// Reference lookups happen before the fan-out: the feature extractor
	// needs the normalized word list to attribute vowel spans.
	lookups := a.lookupWords(ctx, req.ReferenceText)
	words := make([]string, len(lookups))
	for i, l := range lookups {
		words[i] = l.Word
	}

	transcript, qualityScore, extraction, err := a.fanOut(ctx, req, words)
	if err != nil {
		a.metrics.RecordAnalysis(ctx, "error", time.Since(start).Seconds())
		return report.ProficiencyReport{}, err
	}

	log.Debug("providers returned",
		slog.String("transcript", transcript.Text),
		slog.Float64("quality", qualityScore),
		slog.Int("measured_words", len(extraction.Words)),
	)

	inputs := a.assemble(req.ReferenceText, lookups, transcript, qualityScore, extraction)
	rep := score.Aggregate(inputs, a.scoring)

	a.metrics.RecordAnalysis(ctx, "ok", time.Since(start).Seconds())
	log.Info("analysis completed",
		slog.Int("words", len(rep.Words)),
		slog.Float64("acoustic", rep.Scores.Acoustic),
		slog.Duration("duration", time.Since(start)),
	)
	return rep, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.ReferenceText) == "" {
		return fmt.Errorf("reference text must not be empty: %w", ErrInvalidInput)
	}
	if len(req.Audio) == 0 {
		return fmt.Errorf("audio payload must not be empty: %w", ErrInvalidInput)
	}
	if len(req.Audio) > maxAudioBytes {
		return fmt.Errorf("audio payload exceeds %d bytes: %w", maxAudioBytes, ErrInvalidInput)
	}
	return nil
}

// fanOut calls the three providers concurrently. The first failure cancels
// the remaining calls.
func (a *Analyzer) fanOut(ctx context.Context, req Request, words []string) (recognizer.Transcript, float64, features.Extraction, error) {
	var (
		transcript recognizer.Transcript
		qual       float64
		extraction features.Extraction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		t, err := a.rec.Transcribe(gctx, req.Audio)
		a.metrics.RecordProviderCall(gctx, a.rec.Name(), time.Since(t0).Seconds())
		if err != nil {
			a.recordProviderError(gctx, err)
			return fmt.Errorf("transcribe: %w", err)
		}
		transcript = t
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		q, err := a.qual.Score(gctx, req.Audio, req.ReferenceText)
		a.metrics.RecordProviderCall(gctx, a.qual.Name(), time.Since(t0).Seconds())
		if err != nil {
			a.recordProviderError(gctx, err)
			return fmt.Errorf("quality score: %w", err)
		}
		qual = q
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		e, err := a.feat.Extract(gctx, req.Audio, words)
		a.metrics.RecordProviderCall(gctx, a.feat.Name(), time.Since(t0).Seconds())
		if err != nil {
			a.recordProviderError(gctx, err)
			return fmt.Errorf("extract features: %w", err)
		}
		extraction = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return recognizer.Transcript{}, 0, features.Extraction{}, err
	}
	return transcript, qual, extraction, nil
}

// lookupWords resolves every whitespace-separated token of text to its
// canonical pronunciation. Tokens that normalize to nothing are skipped.
func (a *Analyzer) lookupWords(ctx context.Context, text string) []lexicon.Result {
	fields := strings.Fields(text)
	results := make([]lexicon.Result, 0, len(fields))
	var unresolvable int64
	for _, f := range fields {
		if lexicon.Normalize(f) == "" {
			continue
		}
		res := a.lex.Lookup(f)
		if res.Unresolvable {
			unresolvable++
		}
		results = append(results, res)
	}
	a.metrics.RecordUnresolvableWords(ctx, unresolvable)
	return results
}

// predictedSequence derives the predicted phoneme sequence from the
// recognizer transcript through the same lexicon path used for the reference.
// Unresolvable recognized words contribute nothing.
func (a *Analyzer) predictedSequence(text string) phoneme.Sequence {
	var seq phoneme.Sequence
	for _, f := range strings.Fields(text) {
		if lexicon.Normalize(f) == "" {
			continue
		}
		res := a.lex.Lookup(f)
		if !res.Unresolvable {
			seq = append(seq, res.Canonical...)
		}
	}
	return seq
}

// assemble aligns the utterance and attributes operations back to words.
func (a *Analyzer) assemble(refText string, lookups []lexicon.Result, transcript recognizer.Transcript, qual float64, extraction features.Extraction) score.Inputs {
	// Reference utterance sequence with one span per resolvable word.
	type span struct{ start, end, word int }
	var (
		refSeq phoneme.Sequence
		spans  []span
	)
	for i, l := range lookups {
		if l.Unresolvable {
			continue
		}
		spans = append(spans, span{start: len(refSeq), end: len(refSeq) + len(l.Canonical), word: i})
		refSeq = append(refSeq, l.Canonical...)
	}

	predSeq := a.predictedSequence(transcript.Text)
	ops := align.Align(refSeq, predSeq)

	// Attribute ops to words. Insertions attach to the word owning the
	// preceding reference position; leading insertions go to the first word.
	wordOps := make([][]align.Op, len(lookups))
	cur := 0
	for _, op := range ops {
		if len(spans) == 0 {
			break
		}
		if op.RefPos >= 0 {
			for cur < len(spans)-1 && op.RefPos >= spans[cur].end {
				cur++
			}
		}
		w := spans[cur].word
		wordOps[w] = append(wordOps[w], op)
	}

	// Per-word acoustics, matched by normalized word in text order.
	acoustics := make(map[string][]*prosody.WordAcoustics)
	for i := range extraction.Words {
		wa := &extraction.Words[i]
		acoustics[wa.Word] = append(acoustics[wa.Word], wa)
	}

	inputs := score.Inputs{
		ReferenceText:  refText,
		RecognizedText: transcript.Text,
		Words:          make([]score.WordInput, len(lookups)),
		Quality:        qual,
		Features:       extraction.Features,
		Judgments:      prosody.Interpret(extraction.Features, a.thresholds),
	}
	for i, l := range lookups {
		wi := score.WordInput{Lookup: l, Ops: wordOps[i]}
		if q := acoustics[l.Word]; len(q) > 0 {
			wi.Acoustics = q[0]
			acoustics[l.Word] = q[1:]
		}
		inputs.Words[i] = wi
	}
	return inputs
}

// recordProviderError records the classified provider failure in metrics.
func (a *Analyzer) recordProviderError(ctx context.Context, err error) {
	var pe *provider.Error
	name, kind := "unknown", "unavailable"
	if errors.As(err, &pe) {
		name, kind = pe.Name, pe.Kind.String()
	}
	a.metrics.RecordProviderError(ctx, name, kind)
}
