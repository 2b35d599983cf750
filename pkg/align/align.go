// Package align implements minimum-edit-distance alignment of phoneme
// sequences.
//
// The aligner is the classic dynamic-programming edit distance over phoneme
// tokens (match 0, substitution 1, insertion 1, deletion 1) followed by a
// backtrace from (m, n) to (0, 0) that recovers the operation sequence. When
// multiple minimum-cost paths exist the backtrace prefers, in order:
// Correction, Substitution, Deletion, Insertion. Identical inputs therefore
// always yield identical alignments.
//
// Phoneme equality is stress-aware: two phonemes match when their base
// symbols match. A stress-digit mismatch on a matching base symbol is still a
// Correction, but the op carries a StressMismatch flag so that stress-error
// detection can pick it up downstream.
package align

import (
	"fmt"

	"github.com/MrWong99/elocute/pkg/phoneme"
)

// Kind is the tag of an alignment operation.
type Kind uint8

const (
	// Correction pairs a reference phoneme with a matching predicted phoneme.
	Correction Kind = iota

	// Substitution pairs a reference phoneme with a non-matching predicted one.
	Substitution

	// Deletion consumes a reference phoneme with no predicted counterpart.
	Deletion

	// Insertion consumes a predicted phoneme with no reference counterpart.
	Insertion
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Correction:
		return "correction"
	case Substitution:
		return "substitution"
	case Deletion:
		return "deletion"
	case Insertion:
		return "insertion"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize as their
// names in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Op is a single alignment operation. It is a tagged variant: which fields
// are meaningful depends on Kind.
//
//   - Correction, Substitution: Ref, Pred, RefPos, PredPos are all set.
//   - Deletion: Ref and RefPos are set; Pred is zero and PredPos is -1.
//   - Insertion: Pred and PredPos are set; Ref is zero and RefPos is -1.
type Op struct {
	Kind Kind `json:"kind"`

	// Ref is the reference phoneme, zero for Insertion.
	Ref phoneme.Phoneme `json:"ref,omitzero"`

	// Pred is the predicted phoneme, zero for Deletion.
	Pred phoneme.Phoneme `json:"pred,omitzero"`

	// RefPos is the position in the reference sequence, -1 for Insertion.
	RefPos int `json:"ref_pos"`

	// PredPos is the position in the predicted sequence, -1 for Deletion.
	PredPos int `json:"pred_pos"`

	// StressMismatch is set on a Correction whose base symbols match but
	// whose stress digits differ. It marks the op as a candidate stress
	// error for the classifier.
	StressMismatch bool `json:"stress_mismatch,omitempty"`
}

// Cost returns the edit cost contributed by the op: 0 for Correction, 1 for
// everything else.
func (o Op) Cost() int {
	if o.Kind == Correction {
		return 0
	}
	return 1
}

// Cost sums the edit cost of ops. For an alignment produced by Align it
// equals the minimum edit distance between the two sequences.
func Cost(ops []Op) int {
	total := 0
	for _, o := range ops {
		total += o.Cost()
	}
	return total
}

// Distance computes the minimum edit distance between ref and pred without
// recovering the operation sequence. Single-row DP.
func Distance(ref, pred phoneme.Sequence) int {
	m, n := len(ref), len(pred)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}
	prev := make([]int, n+1)
	cur := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= n; j++ {
			sub := prev[j-1]
			if !ref[i-1].BaseEqual(pred[j-1]) {
				sub++
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			best := sub
			if del < best {
				best = del
			}
			if ins < best {
				best = ins
			}
			cur[j] = best
		}
		prev, cur = cur, prev
	}
	return prev[n]
}

// Align produces the minimum-edit-distance alignment between the reference
// sequence ref and the predicted sequence pred as an ordered sequence of
// operations covering all positions of both. Every reference position appears
// in exactly one non-Insertion op and every predicted position in exactly one
// non-Deletion op.
//
// Both sequences empty yields an empty (non-nil) op slice; callers treat that
// case as excluded from aggregate scoring rather than as a perfect score.
func Align(ref, pred phoneme.Sequence) []Op {
	m, n := len(ref), len(pred)

	// dp[i][j] = min edit distance between ref[:i] and pred[:j].
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			sub := dp[i-1][j-1]
			if !ref[i-1].BaseEqual(pred[j-1]) {
				sub++
			}
			del := dp[i-1][j] + 1
			ins := dp[i][j-1] + 1
			best := sub
			if del < best {
				best = del
			}
			if ins < best {
				best = ins
			}
			dp[i][j] = best
		}
	}

	// Backtrace from (m, n). Tie-break order: Correction, Substitution,
	// Deletion (consumes a reference position), Insertion.
	ops := make([]Op, 0, max(m, n))
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && ref[i-1].BaseEqual(pred[j-1]) && dp[i][j] == dp[i-1][j-1]:
			ops = append(ops, Op{
				Kind:           Correction,
				Ref:            ref[i-1],
				Pred:           pred[j-1],
				RefPos:         i - 1,
				PredPos:        j - 1,
				StressMismatch: ref[i-1].Stress != pred[j-1].Stress,
			})
			i--
			j--
		case i > 0 && j > 0 && !ref[i-1].BaseEqual(pred[j-1]) && dp[i][j] == dp[i-1][j-1]+1:
			ops = append(ops, Op{
				Kind:    Substitution,
				Ref:     ref[i-1],
				Pred:    pred[j-1],
				RefPos:  i - 1,
				PredPos: j - 1,
			})
			i--
			j--
		case i > 0 && dp[i][j] == dp[i-1][j]+1:
			ops = append(ops, Op{
				Kind:    Deletion,
				Ref:     ref[i-1],
				RefPos:  i - 1,
				PredPos: -1,
			})
			i--
		default:
			ops = append(ops, Op{
				Kind:    Insertion,
				Pred:    pred[j-1],
				RefPos:  -1,
				PredPos: j - 1,
			})
			j--
		}
	}

	// The backtrace emits ops last-to-first; reverse into sequence order.
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}
