package analyzer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/elocute/internal/analyzer"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/pkg/lexicon"
	"github.com/MrWong99/elocute/pkg/prosody"
	"github.com/MrWong99/elocute/pkg/provider"
	"github.com/MrWong99/elocute/pkg/provider/features"
	featmock "github.com/MrWong99/elocute/pkg/provider/features/mock"
	qualmock "github.com/MrWong99/elocute/pkg/provider/quality/mock"
	"github.com/MrWong99/elocute/pkg/provider/recognizer"
	recmock "github.com/MrWong99/elocute/pkg/provider/recognizer/mock"
)

const testDict = `SHE  SH IY1
SELLS  S EH1 L Z
SEASHELLS  S IY1 SH EH2 L Z
SOCCER  S AA1 K ER0
SUCKER  S AH1 K ER0
`

// neutralFeatures sits inside every normal band of the default thresholds.
var neutralFeatures = prosody.Features{
	MeanF0:       150,
	StdF0:        50,
	RangeF0:      120,
	SpeakingRate: 4,
	Duration:     2,
}

func testLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	l, err := lexicon.NewFromReader(strings.NewReader(testDict))
	if err != nil {
		t.Fatalf("NewFromReader: %v", err)
	}
	return l
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func newAnalyzer(t *testing.T, rec *recmock.Provider, qual *qualmock.Provider, feat *featmock.Provider) *analyzer.Analyzer {
	t.Helper()
	a, err := analyzer.New(testLexicon(t), rec, qual, feat, analyzer.WithMetrics(testMetrics(t)))
	if err != nil {
		t.Fatalf("analyzer.New: %v", err)
	}
	return a
}

func TestAnalyze_PerfectReading(t *testing.T) {
	t.Parallel()

	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "she sells seashells"}}
	qual := &qualmock.Provider{ScoreResult: 90}
	feat := &featmock.Provider{ExtractResult: features.Extraction{Features: neutralFeatures}}
	a := newAnalyzer(t, rec, qual, feat)

	rep, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "she sells seashells",
		Audio:         []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Words) != 3 {
		t.Fatalf("got %d words, want 3", len(rep.Words))
	}
	for _, w := range rep.Words {
		if w.Score != 5.0 {
			t.Errorf("word %q score = %.2f, want 5.00", w.Word, w.Score)
		}
	}
	if rep.Scores.Segmental == nil || *rep.Scores.Segmental != 5.0 {
		t.Errorf("segmental = %v, want 5.0", rep.Scores.Segmental)
	}
	// 0.7*90 + 0.3*100 = 93 (local GOP is perfect).
	if rep.Scores.Acoustic != 93 {
		t.Errorf("acoustic = %.4f, want 93.0000", rep.Scores.Acoustic)
	}
	if rep.RecognizedText != "she sells seashells" {
		t.Errorf("recognized text = %q", rep.RecognizedText)
	}
}

func TestAnalyze_SubstitutionAttributedToWord(t *testing.T) {
	t.Parallel()

	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "sucker"}}
	qual := &qualmock.Provider{ScoreResult: 60}
	feat := &featmock.Provider{ExtractResult: features.Extraction{Features: neutralFeatures}}
	a := newAnalyzer(t, rec, qual, feat)

	rep, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "soccer",
		Audio:         []byte{1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Words) != 1 {
		t.Fatalf("got %d words, want 1", len(rep.Words))
	}
	w := rep.Words[0]
	// S AA1 K ER0 vs S AH1 K ER0: one substitution, three corrections.
	if w.Counts.Corrections != 3 || w.Counts.Substitutions != 1 {
		t.Errorf("counts = %+v, want 3 corrections and 1 substitution", w.Counts)
	}
	if w.Score != 4.0 {
		t.Errorf("score = %.2f, want 4.00", w.Score)
	}
}

func TestAnalyze_UnresolvableWordExcluded(t *testing.T) {
	t.Parallel()

	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "soccer"}}
	qual := &qualmock.Provider{ScoreResult: 70}
	feat := &featmock.Provider{ExtractResult: features.Extraction{Features: neutralFeatures}}
	a := newAnalyzer(t, rec, qual, feat)

	rep, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "soccer zzzyqx",
		Audio:         []byte{1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Words) != 2 {
		t.Fatalf("got %d words, want 2", len(rep.Words))
	}
	if !rep.Words[1].Unresolvable {
		t.Error("zzzyqx not marked unresolvable")
	}
	// The resolvable word aligned perfectly, so aggregates see only it.
	if rep.Scores.Segmental == nil || *rep.Scores.Segmental != 5.0 {
		t.Errorf("segmental = %v, want 5.0 from the resolvable word alone", rep.Scores.Segmental)
	}
}

func TestAnalyze_WordAcousticsMatchedByName(t *testing.T) {
	t.Parallel()

	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "soccer"}}
	qual := &qualmock.Provider{ScoreResult: 60}
	feat := &featmock.Provider{ExtractResult: features.Extraction{
		Features: neutralFeatures,
		Words: []prosody.WordAcoustics{{
			Word: "soccer",
			Vowels: []prosody.VowelSample{
				{Index: 0, Duration: 0.08, Intensity: 60, Pitch: 160},
				{Index: 1, Duration: 0.12, Intensity: 70, Pitch: 190},
			},
		}},
	}}
	a := newAnalyzer(t, rec, qual, feat)

	rep, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "Soccer!",
		Audio:         []byte{1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !rep.Words[0].StressError {
		t.Error("trailing primary vowel not flagged as stress error")
	}
}

func TestAnalyze_InvalidInput(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t, &recmock.Provider{}, &qualmock.Provider{}, &featmock.Provider{})

	tests := []struct {
		name string
		req  analyzer.Request
	}{
		{"empty text", analyzer.Request{ReferenceText: "   ", Audio: []byte{1}}},
		{"empty audio", analyzer.Request{ReferenceText: "soccer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := a.Analyze(context.Background(), tt.req)
			if !errors.Is(err, analyzer.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAnalyze_ProviderFailureIsFatal(t *testing.T) {
	t.Parallel()

	provErr := provider.NewError("phonics", provider.KindTimeout, errors.New("deadline"))
	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "soccer"}}
	qual := &qualmock.Provider{ScoreErr: provErr}
	feat := &featmock.Provider{ExtractResult: features.Extraction{Features: neutralFeatures}}
	a := newAnalyzer(t, rec, qual, feat)

	_, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "soccer",
		Audio:         []byte{1},
	})
	if err == nil {
		t.Fatal("Analyze succeeded despite a provider failure")
	}
	if provider.KindOf(err) != provider.KindTimeout {
		t.Errorf("kind = %v, want timeout carried through", provider.KindOf(err))
	}
}

func TestAnalyze_ProsodyIssuesSurface(t *testing.T) {
	t.Parallel()

	monotone := neutralFeatures
	monotone.StdF0 = 5
	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "soccer"}}
	qual := &qualmock.Provider{ScoreResult: 60}
	feat := &featmock.Provider{ExtractResult: features.Extraction{Features: monotone}}
	a := newAnalyzer(t, rec, qual, feat)

	rep, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "soccer",
		Audio:         []byte{1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.ProsodyIssues) == 0 {
		t.Error("monotone features produced no prosody issues")
	}
	if rep.Scores.Intonation >= 4 {
		t.Errorf("intonation = %.2f, want penalized below the top band", rep.Scores.Intonation)
	}
}

func TestAnalyze_FeatureExtractorGetsWordList(t *testing.T) {
	t.Parallel()

	rec := &recmock.Provider{TranscribeResult: recognizer.Transcript{Text: "she sells"}}
	qual := &qualmock.Provider{ScoreResult: 60}
	feat := &featmock.Provider{ExtractResult: features.Extraction{Features: neutralFeatures}}
	a := newAnalyzer(t, rec, qual, feat)

	if _, err := a.Analyze(context.Background(), analyzer.Request{
		ReferenceText: "She sells, seashells!",
		Audio:         []byte{1},
	}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(feat.ExtractCalls) != 1 {
		t.Fatalf("extract called %d times, want 1", len(feat.ExtractCalls))
	}
	got := feat.ExtractCalls[0].Words
	want := []string{"she", "sells", "seashells"}
	if len(got) != len(want) {
		t.Fatalf("words = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("words[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
