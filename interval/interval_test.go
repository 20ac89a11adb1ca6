package interval

import (
	"testing"

	"github.com/cs-au-dk/absint/numeric"
)

func TestJoinMeetBasics(t *testing.T) {
	a := Range(F(numeric.Zero()), F(numeric.FromInt64(5)))
	b := Range(F(numeric.FromInt64(3)), F(numeric.FromInt64(10)))

	joined := a.Join(b)
	want := Range(F(numeric.Zero()), F(numeric.FromInt64(10)))
	if !joined.eq(want) {
		t.Errorf("Join(%v, %v) = %v, want %v", a, b, joined, want)
	}

	met := a.Meet(b)
	wantMet := Range(F(numeric.FromInt64(3)), F(numeric.FromInt64(5)))
	if !met.eq(wantMet) {
		t.Errorf("Meet(%v, %v) = %v, want %v", a, b, met, wantMet)
	}
}

// TestWidenThresholdsGrowingUpperBound pins down the high branch: a
// threshold at or above the new upper bound, and above the old
// one, is snapped to rather than jumping straight to +inf.
func TestWidenThresholdsGrowingUpperBound(t *testing.T) {
	base := Point(numeric.Zero())
	grown := Range(F(numeric.Zero()), F(numeric.FromInt64(3)))
	jumpSet := []numeric.Number{numeric.FromInt64(5)}

	got := base.WidenThresholds(grown, jumpSet)
	if isPlusInf(got.High) {
		t.Fatalf("expected upper bound snapped to a threshold, got +inf: %v", got)
	}
	hi, ok := got.High.(Finite)
	if !ok || !hi.N.Eq(numeric.FromInt64(5)) {
		t.Errorf("expected upper bound snapped to 5, got %v", got.High)
	}
}

// TestWidenThresholdsShrinkingLowerBound exercises a decreasing lower bound
// against a populated jump set: WidenThresholds must snap to the nearest
// enclosing threshold rather than falling through to -inf, the bug the low
// branch's inverted comparison used to cause unconditionally.
func TestWidenThresholdsShrinkingLowerBound(t *testing.T) {
	base := Range(F(numeric.FromInt64(10)), F(numeric.FromInt64(20)))
	shrunk := Range(F(numeric.FromInt64(2)), F(numeric.FromInt64(20)))
	jumpSet := []numeric.Number{numeric.Zero()}

	got := base.WidenThresholds(shrunk, jumpSet)
	if isMinusInf(got.Low) {
		t.Fatalf("expected lower bound snapped to a threshold, got -inf: %v", got)
	}
	lo, ok := got.Low.(Finite)
	if !ok || !lo.N.Eq(numeric.Zero()) {
		t.Errorf("expected lower bound snapped to 0, got %v", got.Low)
	}
}

// TestWidenThresholdsNoEnclosingThreshold checks that an empty (or
// non-enclosing) jump set still falls back to the classical -inf/+inf
// widening rather than picking a threshold that doesn't actually enclose
// the new bound.
func TestWidenThresholdsNoEnclosingThreshold(t *testing.T) {
	base := Range(F(numeric.FromInt64(10)), F(numeric.FromInt64(20)))
	shrunk := Range(F(numeric.FromInt64(2)), F(numeric.FromInt64(20)))

	got := base.WidenThresholds(shrunk, nil)
	if !isMinusInf(got.Low) {
		t.Errorf("expected lower bound to widen to -inf with no jump set, got %v", got.Low)
	}
}

func isPlusInf(b Bound) bool {
	_, ok := b.(PlusInf)
	return ok
}

func isMinusInf(b Bound) bool {
	_, ok := b.(MinusInf)
	return ok
}
