// Package termdomain implements the term-equivalence abstract domain: a
// wrapper that lifts an underlying numerical base domain with a symbolic
// term layer, so that two program variables built from syntactically
// identical expressions are known equal for free, without the base domain
// itself being relational.
package termdomain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cs-au-dk/absint/diag"
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/numeric"
	"github.com/cs-au-dk/absint/term"
)

// Domain is the tuple described by the abstract-state invariants: a term
// table, the variable-to-term and term-to-proxy maps, the wrapped base
// domain state over proxy names, a proxy allocator, and a dirty set of
// terms pending normalization.
type Domain struct {
	family domain.Family
	sink   diag.Sink

	isBottom bool
	ttbl     *term.Table
	varMap   map[numeric.VariableName]term.Id
	termMap  map[term.Id]numeric.VariableName
	impl     domain.BaseDomain
	alloc    numeric.ProxyNameAllocator
	dirty    map[term.Id]struct{}
}

// Family manufactures term-equivalence domains over some underlying Base
// family, the way powerset.Family manufactures powerset domains over some
// underlying Base — so wrapping code can compose domains without spelling
// out termdomain.Domain's fields.
type Family struct {
	Base domain.Family
	Sink diag.Sink
}

func (f Family) Top() domain.BaseDomain {
	d := Top(f.Base)
	if f.Sink != nil {
		d = d.WithSink(f.Sink)
	}
	return d
}

func (f Family) Bottom() domain.BaseDomain {
	d := Bottom(f.Base)
	if f.Sink != nil {
		d = d.WithSink(f.Sink)
	}
	return d
}

// Top returns the domain with no bound variables: no proxy names held,
// impl at its own top. Diagnostics are discarded until WithSink is called.
func Top(family domain.Family) Domain {
	return Domain{
		family:  family,
		sink:    diag.Discard{},
		ttbl:    term.NewTable(),
		varMap:  map[numeric.VariableName]term.Id{},
		termMap: map[term.Id]numeric.VariableName{},
		impl:    family.Top(),
		alloc:   numeric.NewProxyNameAllocator(),
		dirty:   map[term.Id]struct{}{},
	}
}

// WithSink returns d with every future diagnostic (bitwise/division
// tainting, currently the only one this domain emits) routed to sink.
func (d Domain) WithSink(sink diag.Sink) Domain {
	d.sink = sink
	return d
}

// Bottom returns the unsatisfiable domain.
func Bottom(family domain.Family) Domain {
	d := Top(family)
	d.isBottom = true
	d.impl = family.Bottom()
	return d
}

func (d Domain) IsTop() bool {
	return !d.isBottom && len(d.varMap) == 0 && d.impl.IsTop()
}

func (d Domain) IsBottom() bool { return d.isBottom }

func (d Domain) Name() string { return "term-equivalence(" + d.impl.Name() + ")" }

func (d Domain) String() string {
	if d.isBottom {
		return "⊥"
	}
	names := make([]numeric.VariableName, 0, len(d.varMap))
	for v := range d.varMap {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
	parts := make([]string, len(names))
	for i, v := range names {
		parts[i] = v.String() + " -> t" + strconv.Itoa(int(d.varMap[v]))
	}
	return "{" + strings.Join(parts, ", ") + "} over " + d.impl.String()
}

// clone returns a copy with fresh maps but the same term table pointer and
// the same impl value (base-domain states are themselves copied by value
// on their own lattice operations, so sharing the interface value here is
// safe until the next mutating call). The term table is not copied: the
// clone and the original append to one shared table. Ids stay valid for
// both because terms are never removed, and whether a term is bound in a
// given domain is decided by that domain's termMap, not by the table.
func (d Domain) clone() *Domain {
	r := &Domain{
		family:   d.family,
		sink:     d.sink,
		isBottom: d.isBottom,
		ttbl:     d.ttbl,
		varMap:   make(map[numeric.VariableName]term.Id, len(d.varMap)),
		termMap:  make(map[term.Id]numeric.VariableName, len(d.termMap)),
		impl:     d.impl,
		alloc:    d.alloc,
		dirty:    make(map[term.Id]struct{}, len(d.dirty)),
	}
	for k, v := range d.varMap {
		r.varMap[k] = v
	}
	for k, v := range d.termMap {
		r.termMap[k] = v
	}
	for k := range d.dirty {
		r.dirty[k] = struct{}{}
	}
	return r
}

func (r *Domain) markDirty(t term.Id) {
	r.dirty[t] = struct{}{}
}

// resolveVarTerm returns the term bound to v, allocating a fresh
// free-variable term (and a fresh proxy for it) if v has never been
// touched — the term-domain's model of "this variable's value is
// currently unconstrained".
func (r *Domain) resolveVarTerm(v numeric.VariableName) term.Id {
	if tid, ok := r.varMap[v]; ok {
		return tid
	}
	tid := r.ttbl.FreshVar()
	proxy := r.alloc.Next()
	r.varMap[v] = tid
	r.termMap[tid] = proxy
	return tid
}

// registerTerm binds tid to a fresh proxy holding valueExpr, unless tid
// already owns a proxy — hash-consing sharing means the proxy already
// holds a sound value and impl must not be touched again.
func (r *Domain) registerTerm(tid term.Id, valueExpr numeric.LinearExpression) {
	if _, ok := r.termMap[tid]; ok {
		return
	}
	proxy := r.alloc.Next()
	r.termMap[tid] = proxy
	r.impl = r.impl.Assign(proxy, valueExpr)
}

// exprToTerm translates a linear expression over program variables into a
// term built from Const and App(OpAdd/OpMul, ...) nodes, mirroring every
// intermediate node into impl via its own proxy.
func (r *Domain) exprToTerm(e numeric.LinearExpression) term.Id {
	acc := r.ttbl.MakeConst(e.Constant())
	r.registerTerm(acc, numeric.Const(e.Constant()))

	for _, v := range e.Variables() {
		coeff := e.Coefficient(v)
		vt := r.resolveVarTerm(v)
		vProxy := r.termMap[vt]

		ct := r.ttbl.MakeConst(coeff)
		r.registerTerm(ct, numeric.Const(coeff))

		mulTerm := r.ttbl.ApplyFtor(numeric.OpMul, vt, ct)
		r.registerTerm(mulTerm, numeric.Var(vProxy).Scale(coeff))

		prevProxy := r.termMap[acc]
		mulProxy := r.termMap[mulTerm]
		acc = r.ttbl.ApplyFtor(numeric.OpAdd, acc, mulTerm)
		r.registerTerm(acc, numeric.Var(prevProxy).Add(numeric.Var(mulProxy)))
	}
	return acc
}

// renameExprToProxies rewrites a constraint's linear expression from
// program-variable space to proxy space, resolving each variable's
// current term as a side effect.
func (r *Domain) renameExprToProxies(e numeric.LinearExpression) numeric.LinearExpression {
	out := numeric.Const(e.Constant())
	for _, v := range e.Variables() {
		tid := r.resolveVarTerm(v)
		proxy := r.termMap[tid]
		out = out.Add(numeric.Var(proxy).Scale(e.Coefficient(v)))
	}
	return out
}

// settle finalizes a builder in progress: propagates the dirty set
// through the term DAG and lowers the domain to bottom if impl became
// unsatisfiable, then returns the finished value.
func (r *Domain) settle() domain.BaseDomain {
	r.normalize()
	return *r
}

func (d Domain) Assign(v numeric.VariableName, e numeric.LinearExpression) domain.BaseDomain {
	if d.isBottom {
		return d
	}
	r := d.clone()
	tid := r.exprToTerm(e)
	r.varMap[v] = tid
	r.markDirty(tid)
	return r.settle()
}

func (d Domain) taintedApply(op numeric.Operation, x, y, z numeric.VariableName, useConst bool, k numeric.Number) domain.BaseDomain {
	r := d.clone()
	r.sink.Warn("%s cannot be expressed as term structure; %s is tainted with a fresh, non-hash-consed term", op, x)
	ty := r.resolveVarTerm(y)
	proxyY := r.termMap[ty]

	tx := r.ttbl.FreshVar()
	proxyX := r.alloc.Next()
	r.termMap[tx] = proxyX

	if useConst {
		r.impl = r.impl.ApplyConst(op, proxyX, proxyY, k)
	} else {
		tz := r.resolveVarTerm(z)
		proxyZ := r.termMap[tz]
		r.impl = r.impl.Apply(op, proxyX, proxyY, proxyZ)
	}
	r.varMap[x] = tx
	r.markDirty(tx)
	return r.settle()
}

// Apply hash-conses App(op, term(y), term(z)) and rebinds x to it. If the
// term already existed the underlying proxy already holds a sound value
// and impl is left untouched. Bitwise and division operations cannot be
// expressed precisely as term structure, so they taint x with a fresh,
// non-hash-consed term computed by a direct base-domain transfer instead
// of entering the canonical term DAG.
func (d Domain) Apply(op numeric.Operation, x, y, z numeric.VariableName) domain.BaseDomain {
	if d.isBottom {
		return d
	}
	if op.IsBitwise() || op.IsDivision() {
		return d.taintedApply(op, x, y, z, false, numeric.Zero())
	}
	r := d.clone()
	ty := r.resolveVarTerm(y)
	tz := r.resolveVarTerm(z)
	proxyY, proxyZ := r.termMap[ty], r.termMap[tz]

	tx := r.ttbl.ApplyFtor(op, ty, tz)
	if _, ok := r.termMap[tx]; !ok {
		proxyX := r.alloc.Next()
		r.termMap[tx] = proxyX
		r.impl = r.impl.Apply(op, proxyX, proxyY, proxyZ)
	}
	r.varMap[x] = tx
	r.markDirty(tx)
	return r.settle()
}

func (d Domain) ApplyConst(op numeric.Operation, x, y numeric.VariableName, k numeric.Number) domain.BaseDomain {
	if d.isBottom {
		return d
	}
	if op.IsBitwise() || op.IsDivision() {
		return d.taintedApply(op, x, y, numeric.VariableName{}, true, k)
	}
	r := d.clone()
	ty := r.resolveVarTerm(y)
	proxyY := r.termMap[ty]
	tk := r.ttbl.MakeConst(k)
	r.registerTerm(tk, numeric.Const(k))

	tx := r.ttbl.ApplyFtor(op, ty, tk)
	if _, ok := r.termMap[tx]; !ok {
		proxyX := r.alloc.Next()
		r.termMap[tx] = proxyX
		r.impl = r.impl.ApplyConst(op, proxyX, proxyY, k)
	}
	r.varMap[x] = tx
	r.markDirty(tx)
	return r.settle()
}

func (d Domain) AddConstraint(c numeric.LinearConstraint) domain.BaseDomain {
	if d.isBottom {
		return d
	}
	r := d.clone()
	vars := c.Expr.Variables()
	renamed := numeric.NewLinearConstraint(r.renameExprToProxies(c.Expr), c.Kind)
	r.impl = r.impl.AddConstraint(renamed)
	for _, v := range vars {
		r.markDirty(r.varMap[v])
	}
	return r.settle()
}

func (d Domain) AddConstraintSystem(cs numeric.ConstraintSystem) domain.BaseDomain {
	var res domain.BaseDomain = d
	for _, c := range cs.Constraints {
		res = res.AddConstraint(c)
	}
	return res
}

func (d Domain) Forget(v numeric.VariableName) domain.BaseDomain {
	if d.isBottom {
		return d
	}
	r := d.clone()
	delete(r.varMap, v)
	return *r
}

func (d Domain) Set(v numeric.VariableName, i domain.Interval) domain.BaseDomain {
	if d.isBottom {
		return d
	}
	r := d.clone()
	tid := r.ttbl.FreshVar()
	proxy := r.alloc.Next()
	r.termMap[tid] = proxy
	r.impl = r.impl.Set(proxy, i)
	r.varMap[v] = tid
	r.markDirty(tid)
	return r.settle()
}

// Get returns the current interval for v, normalizing first so any
// pending tightening (and any resulting contradiction) is reflected.
func (d Domain) Get(v numeric.VariableName) domain.Interval {
	r := d.clone()
	r.normalize()
	if r.isBottom {
		return r.impl.Get(v)
	}
	tid, ok := r.varMap[v]
	if !ok {
		return r.impl.Get(v)
	}
	return r.impl.Get(r.termMap[tid])
}

// Expand copies x's current term binding into y. Because bindings are
// per-variable entries in var_map rather than references to a shared
// cell, subsequent mutation of x rebinds only x: y keeps the term x had
// at the moment of the call. Both variables initially denote the same
// TermId and therefore the same proxy, so a query immediately after
// Expand reports them equal; that equality is not an alias and does not
// survive a later Assign/Apply to x.
func (d Domain) Expand(x, y numeric.VariableName) Domain {
	if d.isBottom {
		return d
	}
	r := d.clone()
	tid := r.resolveVarTerm(x)
	r.varMap[y] = tid
	return *r
}

// ToConstraintSystem builds the reverse proxy->variable map, emits
// pairwise equalities for variables sharing a proxy, and otherwise
// projects impl's own constraint system down to proxies that are visible
// through some program variable, renaming back to variable space.
func (d Domain) ToConstraintSystem() numeric.ConstraintSystem {
	var cs numeric.ConstraintSystem
	if d.isBottom {
		cs.Add(numeric.NewLinearConstraint(numeric.Const(numeric.One()), numeric.KindEQ))
		return cs
	}

	proxyToVars := map[numeric.VariableName][]numeric.VariableName{}
	names := make([]numeric.VariableName, 0, len(d.varMap))
	for v := range d.varMap {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
	for _, v := range names {
		tid := d.varMap[v]
		proxy := d.termMap[tid]
		proxyToVars[proxy] = append(proxyToVars[proxy], v)
	}

	visible := map[numeric.VariableName]numeric.VariableName{}
	for proxy, vs := range proxyToVars {
		for i := 1; i < len(vs); i++ {
			eq := numeric.Var(vs[0]).Sub(numeric.Var(vs[i]))
			cs.Add(numeric.NewLinearConstraint(eq, numeric.KindEQ))
		}
		visible[proxy] = vs[0]
	}

	implCS := d.impl.ToConstraintSystem()
	for _, c := range implCS.Constraints {
		ok := true
		renamed := numeric.Const(c.Expr.Constant())
		for _, proxy := range c.Expr.Variables() {
			v, mapped := visible[proxy]
			if !mapped {
				ok = false
				break
			}
			renamed = renamed.Add(numeric.Var(v).Scale(c.Expr.Coefficient(proxy)))
		}
		if ok {
			cs.Add(numeric.NewLinearConstraint(renamed, c.Kind))
		}
	}
	return cs
}
