// Package fixpoint implements the interleaved forward fixpoint iterator:
// a WTO-driven traversal that ascends via widening until a post-fixpoint
// is reached, then descends via narrowing to recover precision, calling
// out to an external analyzer for the per-node transfer function and an
// external reporter for the final pre/post invariants.
package fixpoint

import (
	"github.com/cs-au-dk/absint/cfg"
	"github.com/cs-au-dk/absint/diag"
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/numeric"
	"github.com/cs-au-dk/absint/wto"
)

// Config governs the widening/narrowing policy of one iterator run.
type Config struct {
	// WideningThreshold is the number of ascending join iterations
	// performed before widening kicks in.
	WideningThreshold uint
	// NarrowingIterations caps the number of descending refine rounds.
	NarrowingIterations uint
}

// Analyzer runs the statement sequence of one CFG node against pre and
// returns the resulting abstract post-state.
type Analyzer interface {
	Transfer(node cfg.NodeName, pre domain.BaseDomain) domain.BaseDomain
}

// Reporter receives the final pre/post invariant at every node once a run
// completes.
type Reporter interface {
	ProcessPre(node cfg.NodeName, pre domain.BaseDomain)
	ProcessPost(node cfg.NodeName, post domain.BaseDomain)
}

// Iterator owns one CFG and one pair of invariant tables for the duration
// of a run; it does not spawn goroutines. The tables are not released when
// Run returns: they stay readable through Pre and Post until the next Run
// replaces them.
type Iterator struct {
	g        cfg.CFG
	family   domain.Family
	analyzer Analyzer
	cfg      Config
	initial  domain.BaseDomain
	sink     diag.Sink

	pre  map[cfg.NodeName]domain.BaseDomain
	post map[cfg.NodeName]domain.BaseDomain
}

// NewIterator builds an iterator over g. family manufactures the bottom
// value used for predecessors not yet visited (loop back-edges, on the
// first ascending pass); initial is the abstract state at g.Entry(). A nil
// sink discards diagnostics.
func NewIterator(g cfg.CFG, family domain.Family, analyzer Analyzer, initial domain.BaseDomain, cfgOpts Config, sink diag.Sink) *Iterator {
	if sink == nil {
		sink = diag.Discard{}
	}
	return &Iterator{g: g, family: family, analyzer: analyzer, cfg: cfgOpts, initial: initial, sink: sink}
}

// Run walks the CFG's WTO once — ascending/descending every nested cycle
// to a fixpoint — then reports the pre/post invariant of every visited
// node to reporter.
func (it *Iterator) Run(reporter Reporter) {
	order := wto.Build(it.g)
	it.pre = map[cfg.NodeName]domain.BaseDomain{}
	it.post = map[cfg.NodeName]domain.BaseDomain{}

	it.visit(order.Components)

	for n, v := range it.pre {
		reporter.ProcessPre(n, v)
	}
	for n, v := range it.post {
		reporter.ProcessPost(n, v)
	}
}

// Pre and Post let a caller inspect one node's invariant after Run without
// implementing a Reporter just for that.
func (it *Iterator) Pre(n cfg.NodeName) (domain.BaseDomain, bool) {
	v, ok := it.pre[n]
	return v, ok
}

func (it *Iterator) Post(n cfg.NodeName) (domain.BaseDomain, bool) {
	v, ok := it.post[n]
	return v, ok
}

func (it *Iterator) postOf(n cfg.NodeName) domain.BaseDomain {
	if v, ok := it.post[n]; ok {
		return v
	}
	return it.family.Bottom()
}

func (it *Iterator) joinPosts(preds []cfg.NodeName) domain.BaseDomain {
	acc := it.family.Bottom()
	for _, p := range preds {
		acc = acc.Join(it.postOf(p))
	}
	return acc
}

func (it *Iterator) visit(components []wto.Component) {
	for _, c := range components {
		switch t := c.(type) {
		case wto.Vertex:
			it.visitVertex(t.Node)
		case wto.Cycle:
			it.visitCycle(t.Head, t.Body)
		}
	}
}

func (it *Iterator) visitVertex(n cfg.NodeName) {
	var pre domain.BaseDomain
	if n == it.g.Entry() {
		pre = it.initial
	} else {
		pre = it.joinPosts(it.g.PrevNodes(n))
	}
	it.pre[n] = pre
	it.post[n] = it.analyzer.Transfer(n, pre)
}

// visitCycle implements §4.5's per-cycle visit: an ascending loop that
// joins (then widens) until a post-fixpoint, followed by a descending loop
// that meets (then narrows) back toward precision, capped at
// NarrowingIterations rounds.
func (it *Iterator) visitCycle(head cfg.NodeName, body []wto.Component) {
	inside := cycleMembers(head, body)
	outsidePreds := filterOut(it.g.PrevNodes(head), inside)

	pre := it.joinPosts(outsidePreds)
	if head == it.g.Entry() {
		// The entry point's initial state feeds every cycle it
		// participates in, even one headed at the entry itself.
		pre = pre.Join(it.initial)
	}

	thresholds := it.g.InitializeThresholdsForWidening(len(inside))

	for i := uint(1); ; i++ {
		it.pre[head] = pre
		it.post[head] = it.analyzer.Transfer(head, pre)
		it.visit(body)

		newPre := it.joinPosts(it.g.PrevNodes(head))
		if newPre.Leq(pre) {
			pre = newPre
			it.pre[head] = pre
			break
		}
		pre = it.extrapolate(i, pre, newPre, thresholds)
	}

	for j := uint(1); ; j++ {
		it.post[head] = it.analyzer.Transfer(head, pre)
		it.visit(body)

		newPre := it.joinPosts(it.g.PrevNodes(head))
		if pre.Leq(newPre) {
			break
		}
		if j > it.cfg.NarrowingIterations {
			it.sink.Warn("fixpoint: narrowing cap of %d rounds reached at %v; keeping the last sound approximation", it.cfg.NarrowingIterations, head)
			break
		}
		pre = it.refine(j, pre, newPre)
		it.pre[head] = pre
	}
}

func (it *Iterator) extrapolate(i uint, a, b domain.BaseDomain, thresholds cfg.Thresholds) domain.BaseDomain {
	if i <= it.cfg.WideningThreshold {
		return a.Join(b)
	}
	if len(thresholds) > 0 {
		return a.WidenWithThresholds(b, []numeric.Number(thresholds))
	}
	return a.Widen(b)
}

func (it *Iterator) refine(j uint, a, b domain.BaseDomain) domain.BaseDomain {
	if j == 1 {
		return a.Meet(b)
	}
	return a.Narrow(b)
}

// cycleMembers flattens head and every node in body (at any nesting depth)
// into a membership set, used to tell an "outside the cycle" predecessor
// of head from a back-edge.
func cycleMembers(head cfg.NodeName, body []wto.Component) map[cfg.NodeName]bool {
	set := map[cfg.NodeName]bool{head: true}
	var walk func([]wto.Component)
	walk = func(cs []wto.Component) {
		for _, c := range cs {
			switch t := c.(type) {
			case wto.Vertex:
				set[t.Node] = true
			case wto.Cycle:
				set[t.Head] = true
				walk(t.Body)
			}
		}
	}
	walk(body)
	return set
}

func filterOut(ns []cfg.NodeName, exclude map[cfg.NodeName]bool) []cfg.NodeName {
	var out []cfg.NodeName
	for _, n := range ns {
		if !exclude[n] {
			out = append(out, n)
		}
	}
	return out
}
