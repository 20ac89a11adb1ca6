package termdomain

import (
	"sort"

	"github.com/cs-au-dk/absint/numeric"
	"github.com/cs-au-dk/absint/term"
)

// normalize propagates tightening through the term DAG until the dirty
// set is empty. Downward passes push a compound term's value back onto
// its children via the inverse operation; upward passes re-derive a
// parent's value from newly tightened children. The two alternate until
// nothing changes, since either pass can re-dirty terms the other just
// finished with.
func (r *Domain) normalize() {
	if r.isBottom {
		return
	}
	if r.impl.IsBottom() {
		r.isBottom = true
		r.dirty = map[term.Id]struct{}{}
		return
	}

	for len(r.dirty) > 0 {
		next := map[term.Id]struct{}{}

		for _, t := range r.orderByDepth(r.dirty, true) {
			trm := r.ttbl.Get(t)
			if trm.Kind != term.KindApp {
				continue
			}
			if r.tightenChild(t, trm.Op, 0, trm.Arg0, trm.Arg1) {
				next[trm.Arg0] = struct{}{}
			}
			if r.impl.IsBottom() {
				r.isBottom = true
				r.dirty = map[term.Id]struct{}{}
				return
			}
			if r.tightenChild(t, trm.Op, 1, trm.Arg1, trm.Arg0) {
				next[trm.Arg1] = struct{}{}
			}
			if r.impl.IsBottom() {
				r.isBottom = true
				r.dirty = map[term.Id]struct{}{}
				return
			}
		}

		for _, t := range r.orderByDepth(r.dirty, false) {
			for _, p := range r.ttbl.Parents(t) {
				trm := r.ttbl.Get(p)
				if r.tightenParent(p, trm.Op, trm.Arg0, trm.Arg1) {
					next[p] = struct{}{}
				}
				if r.impl.IsBottom() {
					r.isBottom = true
					r.dirty = map[term.Id]struct{}{}
					return
				}
			}
		}

		r.dirty = next
	}
}

// orderByDepth returns the ids in set sorted by term depth, descending
// when desc is true and ascending otherwise.
func (r *Domain) orderByDepth(set map[term.Id]struct{}, desc bool) []term.Id {
	ids := make([]term.Id, 0, len(set))
	for t := range set {
		ids = append(ids, t)
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := r.ttbl.Depth(ids[i]), r.ttbl.Depth(ids[j])
		if desc {
			return di > dj
		}
		return di < dj
	})
	return ids
}

// downwardCandidate picks the operation and operand order that solves an
// App(op, a, b) term for its argIndex'th argument given the term's own
// value (t) and its other argument (other). For the commutative
// operators, solving for either argument uses op's own inverse applied to
// (t, other). For the non-commutative operators, solving for the left
// argument still uses the inverse applied to (t, other), but solving for
// the right argument reapplies op itself to (other, t) — e.g. t = a - b
// gives a = t + b (inverse) but b = a - t (op itself, operands swapped).
func downwardCandidate(op numeric.Operation, argIndex int, t, other numeric.VariableName) (candOp numeric.Operation, x, y numeric.VariableName, ok bool) {
	switch op {
	case numeric.OpAdd, numeric.OpMul:
		inv, invOk := op.Invert()
		return inv, t, other, invOk
	case numeric.OpSub, numeric.OpDiv:
		if argIndex == 0 {
			inv, invOk := op.Invert()
			return inv, t, other, invOk
		}
		return op, other, t, true
	default:
		return op, t, other, false
	}
}

// tightenChild refines the argIndex'th argument (child) of an App(op, ...)
// term using the term's own proxy and its sibling argument, without
// discarding what was already known about child. It reports whether the
// value changed.
func (r *Domain) tightenChild(parent term.Id, op numeric.Operation, argIndex int, child, sibling term.Id) bool {
	proxyP, hasP := r.termMap[parent]
	proxyC, hasC := r.termMap[child]
	proxyS, hasS := r.termMap[sibling]
	if !hasP || !hasC || !hasS {
		return false
	}
	candOp, x, y, ok := downwardCandidate(op, argIndex, proxyP, proxyS)
	if !ok {
		return false
	}
	before := r.impl.Get(proxyC)
	candidate := r.impl.Apply(candOp, proxyC, x, y)
	r.impl = r.impl.Meet(candidate)
	if r.impl.IsBottom() {
		return true
	}
	after := r.impl.Get(proxyC)
	return !before.Eq(after)
}

// tightenParent re-derives a parent's value from its (possibly just
// tightened) children and meets it into what was already known.
func (r *Domain) tightenParent(parent term.Id, op numeric.Operation, a, b term.Id) bool {
	proxyP, hasP := r.termMap[parent]
	proxyA, hasA := r.termMap[a]
	proxyB, hasB := r.termMap[b]
	if !hasP || !hasA || !hasB {
		return false
	}
	before := r.impl.Get(proxyP)
	derived := r.impl.Apply(op, proxyP, proxyA, proxyB)
	r.impl = r.impl.Meet(derived)
	if r.impl.IsBottom() {
		return true
	}
	after := r.impl.Get(proxyP)
	return !before.Eq(after)
}
