package termdomain

import (
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/numeric"
	"github.com/cs-au-dk/absint/term"
)

func unionVarNames(a, b map[numeric.VariableName]term.Id) []numeric.VariableName {
	seen := map[numeric.VariableName]struct{}{}
	var out []numeric.VariableName
	for v := range a {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// renameProxy moves whatever impl knows about "from" onto "to" via
// assign-then-forget, which is exact even for a relational base domain
// (unlike reading an Interval and re-Setting it, which would flatten any
// relational information involving from).
func renameProxy(impl domain.BaseDomain, from, to numeric.VariableName) domain.BaseDomain {
	impl = impl.Assign(to, numeric.Var(from))
	return impl.Forget(from)
}

// freshenAllProxies renames every proxy name held in termMap onto a fresh
// name from alloc. Two independently-built domains mint their proxy names
// from allocators that both start counting at zero with the same prefix,
// so an unrelated term in one domain can hold literally the same
// VariableName as an unrelated term in the other; freshening every proxy
// through one shared, already-disjoint allocator before any comparison or
// combination rules that out, rather than only renaming the subset of
// proxies a structural match (map_leq/generalize) happens to visit.
func freshenAllProxies(impl domain.BaseDomain, termMap map[term.Id]numeric.VariableName, alloc *numeric.ProxyNameAllocator) (domain.BaseDomain, map[numeric.VariableName]numeric.VariableName) {
	renamed := make(map[numeric.VariableName]numeric.VariableName, len(termMap))
	for _, proxy := range termMap {
		if _, done := renamed[proxy]; done {
			continue
		}
		fresh := alloc.Next()
		impl = renameProxy(impl, proxy, fresh)
		renamed[proxy] = fresh
	}
	return impl, renamed
}

func (d Domain) asTermDomain(other domain.BaseDomain) Domain {
	o, ok := other.(Domain)
	if !ok {
		panic("termdomain: incompatible base domain in binary operation")
	}
	return o
}

// Leq decides self ≤ other by first normalizing self, then checking that
// other's term structure for every variable is matched (or exceeded) by
// self's, and finally comparing the two base-domain states after
// unifying every proxy pair the structural check discovered to be
// equated.
func (d Domain) Leq(otherBD domain.BaseDomain) bool {
	other := d.asTermDomain(otherBD)
	if d.isBottom {
		return true
	}
	if other.isBottom {
		return false
	}

	self := d.clone()
	self.normalize()
	if self.isBottom {
		return true
	}

	m := term.LeqMap{}
	for _, v := range unionVarNames(self.varMap, other.varMap) {
		ty, hasY := other.varMap[v]
		if !hasY {
			continue
		}
		tx, hasX := self.varMap[v]
		if !hasX {
			tx = self.ttbl.FreshVar()
		}
		if !self.ttbl.MapLeq(other.ttbl, tx, ty, m) {
			return false
		}
	}

	combined := numeric.CombineAllocators(self.alloc, other.alloc)
	leftImpl, leftFresh := freshenAllProxies(self.impl, self.termMap, &combined)
	rightImpl, rightFresh := freshenAllProxies(other.impl, other.termMap, &combined)

	for ty, tx := range m {
		proxyX, hasX := self.termMap[tx]
		proxyY, hasY := other.termMap[ty]
		if !hasX || !hasY {
			continue
		}
		shared := combined.Next()
		leftImpl = renameProxy(leftImpl, leftFresh[proxyX], shared)
		rightImpl = renameProxy(rightImpl, rightFresh[proxyY], shared)
	}
	return leftImpl.Leq(rightImpl)
}

// joinLike is the shared skeleton of Join, Widen and WidenWithThresholds:
// normalize (except when told not to, for Widen's left operand), compute
// the pairwise anti-unifier of every program variable's term, allocate a
// fresh shared proxy per distinct generalized subterm, rename both sides
// onto it, and combine the two renamed base states with combine.
func (d Domain) joinLike(otherBD domain.BaseDomain, normalizeSelf bool, combine func(a, b domain.BaseDomain) domain.BaseDomain) Domain {
	other := d.asTermDomain(otherBD)

	self := d.clone()
	if normalizeSelf {
		self.normalize()
	}
	o := other.clone()
	o.normalize()

	if self.isBottom {
		return *o
	}
	if o.isBottom {
		return *self
	}

	newTable := term.NewTable()
	genMap := term.GenMap{}
	result := Domain{
		family:  self.family,
		sink:    self.sink,
		ttbl:    newTable,
		varMap:  map[numeric.VariableName]term.Id{},
		termMap: map[term.Id]numeric.VariableName{},
		alloc:   numeric.CombineAllocators(self.alloc, o.alloc),
		dirty:   map[term.Id]struct{}{},
	}

	for _, v := range unionVarNames(self.varMap, o.varMap) {
		tx, hasX := self.varMap[v]
		if !hasX {
			tx = self.ttbl.FreshVar()
		}
		ty, hasY := o.varMap[v]
		if !hasY {
			ty = o.ttbl.FreshVar()
		}
		result.varMap[v] = self.ttbl.Generalize(o.ttbl, tx, ty, newTable, genMap)
	}

	leftImpl, leftFresh := freshenAllProxies(self.impl, self.termMap, &result.alloc)
	rightImpl, rightFresh := freshenAllProxies(o.impl, o.termMap, &result.alloc)

	for pair, tz := range genMap {
		proxyX, hasX := self.termMap[pair.X]
		proxyY, hasY := o.termMap[pair.Y]
		if !hasX || !hasY {
			// A component with no proxy of its own (an on-the-fly
			// placeholder minted above for an unbound variable) carries
			// no base-domain information to merge; the generalized term
			// simply stays proxyless until something binds it.
			continue
		}
		proxy := result.alloc.Next()
		result.termMap[tz] = proxy
		leftImpl = renameProxy(leftImpl, leftFresh[proxyX], proxy)
		rightImpl = renameProxy(rightImpl, rightFresh[proxyY], proxy)
	}

	result.impl = combine(leftImpl, rightImpl)
	return result
}

func (d Domain) Join(other domain.BaseDomain) domain.BaseDomain {
	return d.joinLike(other, true, func(a, b domain.BaseDomain) domain.BaseDomain { return a.Join(b) })
}

// Widen behaves like Join but combines with base-domain widening, and —
// to preserve termination of the ascending sequence — does not normalize
// the left operand first.
func (d Domain) Widen(other domain.BaseDomain) domain.BaseDomain {
	return d.joinLike(other, false, func(a, b domain.BaseDomain) domain.BaseDomain { return a.Widen(b) })
}

func (d Domain) WidenWithThresholds(other domain.BaseDomain, jumpSet []numeric.Number) domain.BaseDomain {
	return d.joinLike(other, false, func(a, b domain.BaseDomain) domain.BaseDomain {
		return a.WidenWithThresholds(b, jumpSet)
	})
}

// Meet and Narrow are documented underapproximations: this domain's term
// table gives no precise way to intersect two independently-built
// generalization structures, so meet returns the second operand and
// narrow returns the first, falling back to bottom only when either side
// already is. Both remain sound refinement sinks — they never claim more
// than one operand already established — but neither is a true
// lattice-theoretic meet or narrowing.
func (d Domain) Meet(other domain.BaseDomain) domain.BaseDomain {
	o := d.asTermDomain(other)
	if d.isBottom || o.isBottom {
		return Bottom(d.family)
	}
	return o
}

func (d Domain) Narrow(other domain.BaseDomain) domain.BaseDomain {
	o := d.asTermDomain(other)
	if d.isBottom || o.isBottom {
		return Bottom(d.family)
	}
	return d
}
