package fixpoint

import (
	"testing"

	"github.com/cs-au-dk/absint/cfg"
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/interval"
	"github.com/cs-au-dk/absint/numeric"
)

// funcAnalyzer maps a node directly to its transfer function; nodes absent
// from the map pass their precondition through unchanged.
type funcAnalyzer map[cfg.NodeName]func(domain.BaseDomain) domain.BaseDomain

func (f funcAnalyzer) Transfer(n cfg.NodeName, pre domain.BaseDomain) domain.BaseDomain {
	if t, ok := f[n]; ok {
		return t(pre)
	}
	return pre
}

type recordingReporter struct {
	pre, post map[cfg.NodeName]domain.BaseDomain
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{pre: map[cfg.NodeName]domain.BaseDomain{}, post: map[cfg.NodeName]domain.BaseDomain{}}
}

func (r *recordingReporter) ProcessPre(n cfg.NodeName, v domain.BaseDomain)  { r.pre[n] = v }
func (r *recordingReporter) ProcessPost(n cfg.NodeName, v domain.BaseDomain) { r.post[n] = v }

func asIntervalGet(t *testing.T, bd domain.BaseDomain, v numeric.VariableName) interval.Interval {
	t.Helper()
	iv := bd.Get(v)
	i, ok := iv.(interval.Interval)
	if !ok {
		t.Fatalf("expected an interval.Interval result, got %T", iv)
	}
	return i
}

// TestAscendingLoopWidensToUnboundedInvariant reproduces "fixpoint on a
// simple loop": entry assigns i:=0, the loop body increments i once per
// iteration, and a widening threshold of one round should reach i >= 0
// without ever needing an upper bound.
func TestAscendingLoopWidensToUnboundedInvariant(t *testing.T) {
	g := cfg.NewGraph(nil)
	entry := g.AddNode()
	head := g.AddNode()
	body := g.AddNode()
	exit := g.AddNode()
	g.SetEntry(entry)
	g.AddEdge(entry, head)
	g.AddEdge(head, body)
	g.AddEdge(body, head)
	g.AddEdge(head, exit)

	vf := numeric.NewVarFactory()
	i := vf.Fresh("i")

	analyzer := funcAnalyzer{
		entry: func(pre domain.BaseDomain) domain.BaseDomain {
			return pre.Assign(i, numeric.Const(numeric.Zero()))
		},
		body: func(pre domain.BaseDomain) domain.BaseDomain {
			return pre.ApplyConst(numeric.OpAdd, i, i, numeric.One())
		},
	}

	it := NewIterator(g, interval.Family{}, analyzer, interval.Top(), Config{WideningThreshold: 1, NarrowingIterations: 0}, nil)
	rep := newRecordingReporter()
	it.Run(rep)

	headPre := asIntervalGet(t, rep.pre[head], i)
	if headPre.IsBottom() {
		t.Fatalf("head precondition is bottom, want a reachable state")
	}
	lo, ok := headPre.Low.(interval.Finite)
	if !ok || !lo.N.Eq(numeric.Zero()) {
		t.Errorf("head precondition lower bound = %v, want 0", headPre.Low)
	}
	if _, isPlusInf := headPre.High.(interval.PlusInf); !isPlusInf {
		t.Errorf("head precondition upper bound = %v, want +inf (widening should have discarded it)", headPre.High)
	}
}

// TestAssumeTightensThroughTheLoop builds the same loop guarded by
// head.assume(i<=10) on the continuing branch and asserts that the value
// flowing into the loop body is tightened to [0,10] — the assume's effect
// survives the ascending/descending traversal rather than being widened
// away.
func TestAssumeTightensThroughTheLoop(t *testing.T) {
	g := cfg.NewGraph(nil)
	entry := g.AddNode()
	head := g.AddNode()
	guard := g.AddNode()
	body := g.AddNode()
	exitGuard := g.AddNode()
	exit := g.AddNode()
	g.SetEntry(entry)
	g.AddEdge(entry, head)
	g.AddEdge(head, guard)
	g.AddEdge(guard, body)
	g.AddEdge(body, head)
	g.AddEdge(head, exitGuard)
	g.AddEdge(exitGuard, exit)

	vf := numeric.NewVarFactory()
	i := vf.Fresh("i")

	ten := numeric.NewLinearConstraint(numeric.Var(i).Sub(numeric.Const(numeric.FromInt64(10))), numeric.KindLEQ)
	eleven := numeric.NewLinearConstraint(numeric.Const(numeric.FromInt64(11)).Sub(numeric.Var(i)), numeric.KindLEQ)

	analyzer := funcAnalyzer{
		entry: func(pre domain.BaseDomain) domain.BaseDomain {
			return pre.Assign(i, numeric.Const(numeric.Zero()))
		},
		guard: func(pre domain.BaseDomain) domain.BaseDomain {
			return pre.AddConstraint(ten)
		},
		exitGuard: func(pre domain.BaseDomain) domain.BaseDomain {
			return pre.AddConstraint(eleven)
		},
		body: func(pre domain.BaseDomain) domain.BaseDomain {
			return pre.ApplyConst(numeric.OpAdd, i, i, numeric.One())
		},
	}

	it := NewIterator(g, interval.Family{}, analyzer, interval.Top(), Config{WideningThreshold: 1, NarrowingIterations: 2}, nil)
	rep := newRecordingReporter()
	it.Run(rep)

	guardPost := asIntervalGet(t, rep.post[guard], i)
	if guardPost.IsBottom() {
		t.Fatal("guard post is bottom, want a reachable state")
	}
	lo, loOK := guardPost.Low.(interval.Finite)
	hi, hiOK := guardPost.High.(interval.Finite)
	if !loOK || !lo.N.Eq(numeric.Zero()) {
		t.Errorf("guard lower bound = %v, want 0", guardPost.Low)
	}
	if !hiOK || !hi.N.Eq(numeric.FromInt64(10)) {
		t.Errorf("guard upper bound = %v, want 10 (the assume should survive the fixpoint)", guardPost.High)
	}

	exitPost := asIntervalGet(t, rep.post[exitGuard], i)
	if exitPost.IsBottom() {
		t.Fatal("exit guard post is bottom, want a reachable state")
	}
	if elo, ok := exitPost.Low.(interval.Finite); !ok || elo.N.Lt(numeric.FromInt64(11)) {
		t.Errorf("exit guard lower bound = %v, want >= 11", exitPost.Low)
	}
}

// TestExtrapolatePolicy pins down §4.5's exact extrapolate rule: ordinary
// join while under the widening threshold, plain widen once past it with
// no jump set, and WidenWithThresholds when a jump set is available.
func TestExtrapolatePolicy(t *testing.T) {
	vf := numeric.NewVarFactory()
	i := vf.Fresh("i")

	base := domain.BaseDomain(interval.Top()).Set(i, interval.Point(numeric.Zero()))
	grown := domain.BaseDomain(interval.Top()).Set(i, interval.Point(numeric.One()))

	it := &Iterator{cfg: Config{WideningThreshold: 2}}

	joined := it.extrapolate(1, base, grown, nil)
	if got := asIntervalGet(t, joined, i); got.High.(interval.Finite).N.Cmp(numeric.One()) != 0 {
		t.Errorf("extrapolate under threshold should behave as Join, got %v", got)
	}

	widened := it.extrapolate(3, base, grown, nil)
	if got := asIntervalGet(t, widened, i); !isPlusInf(got.High) {
		t.Errorf("extrapolate past threshold with no jump set should widen to +inf, got %v", got)
	}

	thresholds := cfg.Thresholds{numeric.FromInt64(5)}
	withThresholds := it.extrapolate(3, base, grown, thresholds)
	got := asIntervalGet(t, withThresholds, i)
	if isPlusInf(got.High) {
		t.Errorf("extrapolate with a jump set should snap to the threshold, not +inf")
	}
	if hi, ok := got.High.(interval.Finite); !ok || !hi.N.Eq(numeric.FromInt64(5)) {
		t.Errorf("extrapolate with jump set {5} should snap the upper bound to 5, got %v", got.High)
	}
}

func isPlusInf(b interval.Bound) bool {
	_, ok := b.(interval.PlusInf)
	return ok
}

// TestRefinePolicy pins down §4.5's exact refine rule: a meet on the first
// descending round, narrowing thereafter.
func TestRefinePolicy(t *testing.T) {
	vf := numeric.NewVarFactory()
	i := vf.Fresh("i")

	it := &Iterator{}

	loose := domain.BaseDomain(interval.Top()).Set(i, interval.Range(interval.MinusInf{}, interval.PlusInf{}))
	tight := domain.BaseDomain(interval.Top()).Set(i, interval.Range(interval.Finite{N: numeric.Zero()}, interval.Finite{N: numeric.FromInt64(10)}))

	met := it.refine(1, loose, tight)
	if got := asIntervalGet(t, met, i); isPlusInf(got.High) {
		t.Errorf("refine(1, ...) should meet and drop the infinite bound, got %v", got)
	}

	narrowed := it.refine(2, loose, tight)
	if got := asIntervalGet(t, narrowed, i); isPlusInf(got.High) {
		t.Errorf("refine(2, ...) should narrow and drop the infinite bound, got %v", got)
	}
}

// TestPlainVertexMonotonicity checks the fixpoint monotonicity property for
// non-cycle nodes, where pre(n) is set by construction to the join over
// post(preds(n)) and post(n) is set by construction to transfer(n, pre(n));
// both hold with equality, which is a stronger guarantee than the
// property's ⊒.
func TestPlainVertexMonotonicity(t *testing.T) {
	g := cfg.NewGraph(nil)
	a := g.AddNode()
	b := g.AddNode()
	c := g.AddNode()
	g.SetEntry(a)
	g.AddEdge(a, b)
	g.AddEdge(a, c)

	vf := numeric.NewVarFactory()
	x := vf.Fresh("x")

	analyzer := funcAnalyzer{
		a: func(pre domain.BaseDomain) domain.BaseDomain { return pre.Assign(x, numeric.Const(numeric.Zero())) },
	}

	it := NewIterator(g, interval.Family{}, analyzer, interval.Top(), Config{}, nil)
	rep := newRecordingReporter()
	it.Run(rep)

	for _, n := range []cfg.NodeName{b, c} {
		want := it.joinPosts(g.PrevNodes(n))
		got := rep.pre[n]
		if !got.Leq(want) || !want.Leq(got) {
			t.Errorf("pre(%v) = %v, want exactly the join over predecessor posts %v", n, got, want)
		}
	}
}
