package align_test

import (
	"reflect"
	"testing"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/elocute/pkg/align"
	"github.com/MrWong99/elocute/pkg/phoneme"
)

// encodeForMatchr maps each distinct phoneme token to a unique rune so that
// matchr.Levenshtein can serve as the reference edit-distance implementation
// for token sequences. Stress digits are ignored, matching the aligner's
// base-symbol equality.
func encodeForMatchr(seqs ...phoneme.Sequence) []string {
	codes := make(map[string]rune)
	next := rune('一')
	out := make([]string, len(seqs))
	for i, seq := range seqs {
		runes := make([]rune, len(seq))
		for j, p := range seq {
			r, ok := codes[p.Symbol]
			if !ok {
				r = next
				codes[p.Symbol] = r
				next++
			}
			runes[j] = r
		}
		out[i] = string(runes)
	}
	return out
}

var alignCases = []struct{ ref, pred string }{
	{"S AA1 K ER0", "S AH K ER0"},
	{"HH AH0 L OW1", "HH AH0 L OW1"},
	{"DH AH0 K W IH1 K", "K W IH1 K S"},
	{"", "AA1 B"},
	{"AA1 B", ""},
	{"", ""},
	{"B AE1 T", "K AE1 B T S"},
	{"P IY1 T ER0 P AY1 P ER0", "P IY1 P ER0"},
}

func TestAlign_CostMatchesReferenceLevenshtein(t *testing.T) {
	t.Parallel()

	for _, tc := range alignCases {
		ref := phoneme.ParseString(tc.ref)
		pred := phoneme.ParseString(tc.pred)

		ops := align.Align(ref, pred)
		enc := encodeForMatchr(ref, pred)
		want := matchr.Levenshtein(enc[0], enc[1])

		if got := align.Cost(ops); got != want {
			t.Errorf("Align(%q, %q): cost = %d, reference Levenshtein = %d", tc.ref, tc.pred, got, want)
		}
		if got := align.Distance(ref, pred); got != want {
			t.Errorf("Distance(%q, %q) = %d, reference Levenshtein = %d", tc.ref, tc.pred, got, want)
		}
	}
}

func TestAlign_SelfAlignmentIsAllCorrections(t *testing.T) {
	t.Parallel()

	ref := phoneme.ParseString("DH AH0 K W IH1 K B R AW1 N F AA1 K S")
	ops := align.Align(ref, ref)

	if len(ops) != len(ref) {
		t.Fatalf("Align(R, R): %d ops, want %d", len(ops), len(ref))
	}
	for i, op := range ops {
		if op.Kind != align.Correction {
			t.Errorf("op[%d] = %v, want correction", i, op.Kind)
		}
		if op.RefPos != i || op.PredPos != i {
			t.Errorf("op[%d] positions = (%d, %d), want (%d, %d)", i, op.RefPos, op.PredPos, i, i)
		}
		if op.StressMismatch {
			t.Errorf("op[%d] flagged stress mismatch on identical input", i)
		}
	}
}

// TestAlign_ReplayReconstructsPrediction replays the operation sequence
// against the reference and checks the predicted sequence falls out exactly.
func TestAlign_ReplayReconstructsPrediction(t *testing.T) {
	t.Parallel()

	for _, tc := range alignCases {
		ref := phoneme.ParseString(tc.ref)
		pred := phoneme.ParseString(tc.pred)
		ops := align.Align(ref, pred)

		var rebuilt phoneme.Sequence
		refSeen := make([]bool, len(ref))
		predSeen := make([]bool, len(pred))
		for _, op := range ops {
			switch op.Kind {
			case align.Correction, align.Substitution:
				rebuilt = append(rebuilt, op.Pred)
				refSeen[op.RefPos] = true
				predSeen[op.PredPos] = true
			case align.Insertion:
				rebuilt = append(rebuilt, op.Pred)
				predSeen[op.PredPos] = true
				if op.RefPos != -1 {
					t.Errorf("insertion carries ref pos %d, want -1", op.RefPos)
				}
			case align.Deletion:
				refSeen[op.RefPos] = true
				if op.PredPos != -1 {
					t.Errorf("deletion carries pred pos %d, want -1", op.PredPos)
				}
			}
		}

		if !reflect.DeepEqual(rebuilt, pred) && !(len(rebuilt) == 0 && len(pred) == 0) {
			t.Errorf("Align(%q, %q): replay = %q, want %q", tc.ref, tc.pred, rebuilt.String(), pred.String())
		}
		for i, seen := range refSeen {
			if !seen {
				t.Errorf("Align(%q, %q): reference position %d not covered", tc.ref, tc.pred, i)
			}
		}
		for i, seen := range predSeen {
			if !seen {
				t.Errorf("Align(%q, %q): predicted position %d not covered", tc.ref, tc.pred, i)
			}
		}
	}
}

func TestAlign_Deterministic(t *testing.T) {
	t.Parallel()

	for _, tc := range alignCases {
		ref := phoneme.ParseString(tc.ref)
		pred := phoneme.ParseString(tc.pred)

		first := align.Align(ref, pred)
		for run := 0; run < 5; run++ {
			if got := align.Align(ref, pred); !reflect.DeepEqual(got, first) {
				t.Fatalf("Align(%q, %q): run %d differs from first run", tc.ref, tc.pred, run)
			}
		}
	}
}

// TestAlign_SoccerScenario pins the worked example: canonical SOCCER against
// a mispronounced second vowel.
func TestAlign_SoccerScenario(t *testing.T) {
	t.Parallel()

	ref := phoneme.ParseString("S AA1 K ER0")
	pred := phoneme.ParseString("S AH K ER0")

	ops := align.Align(ref, pred)
	wantKinds := []align.Kind{align.Correction, align.Substitution, align.Correction, align.Correction}
	if len(ops) != len(wantKinds) {
		t.Fatalf("got %d ops, want %d", len(ops), len(wantKinds))
	}
	for i, k := range wantKinds {
		if ops[i].Kind != k {
			t.Errorf("op[%d] = %v, want %v", i, ops[i].Kind, k)
		}
	}
	if ops[1].Ref.String() != "AA1" || ops[1].Pred.String() != "AH" {
		t.Errorf("substitution = %s→%s, want AA1→AH", ops[1].Ref, ops[1].Pred)
	}
}

func TestAlign_EmptyPredictionIsAllDeletions(t *testing.T) {
	t.Parallel()

	ref := phoneme.ParseString("K AE1 T")
	ops := align.Align(ref, nil)
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(ops))
	}
	for i, op := range ops {
		if op.Kind != align.Deletion {
			t.Errorf("op[%d] = %v, want deletion", i, op.Kind)
		}
	}
}

func TestAlign_EmptyReferenceIsAllInsertions(t *testing.T) {
	t.Parallel()

	pred := phoneme.ParseString("K AE1 T")
	ops := align.Align(nil, pred)
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(ops))
	}
	for i, op := range ops {
		if op.Kind != align.Insertion {
			t.Errorf("op[%d] = %v, want insertion", i, op.Kind)
		}
	}
}

func TestAlign_BothEmpty(t *testing.T) {
	t.Parallel()

	ops := align.Align(nil, nil)
	if ops == nil || len(ops) != 0 {
		t.Fatalf("Align(nil, nil) = %v, want empty non-nil op slice", ops)
	}
}

func TestAlign_StressMismatchIsCorrectionWithFlag(t *testing.T) {
	t.Parallel()

	ref := phoneme.ParseString("AA1")
	pred := phoneme.ParseString("AA0")

	ops := align.Align(ref, pred)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	if ops[0].Kind != align.Correction {
		t.Fatalf("op kind = %v, want correction", ops[0].Kind)
	}
	if !ops[0].StressMismatch {
		t.Error("StressMismatch = false, want true for AA1 vs AA0")
	}
	if align.Cost(ops) != 0 {
		t.Errorf("cost = %d, want 0 for stress-only mismatch", align.Cost(ops))
	}
}

// TestAlign_TieBreakPolicy pins the documented path preference on inputs with
// several minimum-cost alignments.
func TestAlign_TieBreakPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref, pred string
		wantKinds []align.Kind
	}{
		// [Sub(B→T), Del(AE1)] costs the same; diagonal moves win, and the
		// reference-consuming Deletion lands before the trailing positions.
		{"B AE1", "T", []align.Kind{align.Deletion, align.Substitution}},
		// Diagonal moves are preferred over a Deletion+Insertion pair.
		{"B AE1", "AE1 T", []align.Kind{align.Substitution, align.Substitution}},
		// A shared phoneme anchors a Correction; the extra reference phoneme
		// becomes a Deletion rather than a Substitution+Insertion pair.
		{"B AE1", "AE1", []align.Kind{align.Deletion, align.Correction}},
	}
	for _, tt := range tests {
		ops := align.Align(phoneme.ParseString(tt.ref), phoneme.ParseString(tt.pred))
		if len(ops) != len(tt.wantKinds) {
			t.Fatalf("Align(%q, %q): got %d ops (%v), want %d", tt.ref, tt.pred, len(ops), ops, len(tt.wantKinds))
		}
		for i, k := range tt.wantKinds {
			if ops[i].Kind != k {
				t.Errorf("Align(%q, %q): op[%d] = %v, want %v", tt.ref, tt.pred, i, ops[i].Kind, k)
			}
		}
	}
}
