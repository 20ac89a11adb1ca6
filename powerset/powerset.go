// Package powerset implements the bounded-disjunction combinator: a
// domain.BaseDomain built from a non-empty sequence of some other
// domain.BaseDomain's elements, interpreted disjunctively.
//
// Every lattice/transfer operation the contract requires is either applied
// elementwise across the sequence or is resolved by first collapsing
// ("smashing") both operands to a single disjunct in the wrapped domain.
// Smashing trades relational precision across disjuncts for termination:
// an unbounded powerset does not have a widening that both terminates and
// stays disjunctive.
package powerset

import (
	"strings"

	"github.com/cs-au-dk/absint/diag"
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/numeric"
)

// Config bounds the powerset's growth and picks its meet policy.
type Config struct {
	// MaxDisjuncts is the hard cap on |D|. A join that would exceed it
	// smashes instead. Zero is treated as 1 (always-smashed).
	MaxDisjuncts int
	// ExactMeet computes meet as the pairwise cross product of both
	// sides' disjuncts (dropping bottoms) instead of smashing first.
	ExactMeet bool
}

func (c Config) cap() int {
	if c.MaxDisjuncts <= 0 {
		return 1
	}
	return c.MaxDisjuncts
}

// Family manufactures the powerset's own top/bottom out of an underlying
// Family and a Config, so wrapping code (e.g. termdomain, or an analyzer
// picking a base domain) never has to spell out powerset.Domain's fields.
type Family struct {
	Base domain.Family
	Cfg  Config
	Sink diag.Sink
}

func (f Family) Top() domain.BaseDomain    { return Top(f.Base, f.Cfg, f.sink()) }
func (f Family) Bottom() domain.BaseDomain { return Bottom(f.Base, f.Cfg, f.sink()) }

func (f Family) sink() diag.Sink {
	if f.Sink == nil {
		return diag.Discard{}
	}
	return f.Sink
}

// Domain is a non-empty sequence of base-domain disjuncts, interpreted as
// their join. Bottom is represented as the single-element sequence holding
// the base domain's own bottom, never as an empty sequence.
type Domain struct {
	base domain.Family
	cfg  Config
	sink diag.Sink

	disjuncts []domain.BaseDomain
}

// Top returns the single-disjunct top state.
func Top(base domain.Family, cfg Config, sink diag.Sink) Domain {
	if sink == nil {
		sink = diag.Discard{}
	}
	return Domain{base: base, cfg: cfg, sink: sink, disjuncts: []domain.BaseDomain{base.Top()}}
}

// Bottom returns the single-disjunct bottom state.
func Bottom(base domain.Family, cfg Config, sink diag.Sink) Domain {
	if sink == nil {
		sink = diag.Discard{}
	}
	return Domain{base: base, cfg: cfg, sink: sink, disjuncts: []domain.BaseDomain{base.Bottom()}}
}

// Of wraps an already-built, non-empty slice of disjuncts. Panics if given
// an empty slice: the invariant "at least one disjunct" is load-bearing
// for every other method here.
func Of(base domain.Family, cfg Config, sink diag.Sink, disjuncts []domain.BaseDomain) Domain {
	if len(disjuncts) == 0 {
		panic("powerset: Of called with no disjuncts")
	}
	if sink == nil {
		sink = diag.Discard{}
	}
	return Domain{base: base, cfg: cfg, sink: sink, disjuncts: disjuncts}
}

// Disjuncts returns the current disjunct sequence. Callers must not mutate
// the returned slice's elements' underlying domains through side channels;
// the elements themselves are immutable by the BaseDomain contract.
func (d Domain) Disjuncts() []domain.BaseDomain { return append([]domain.BaseDomain(nil), d.disjuncts...) }

func (d Domain) IsBottom() bool {
	for _, e := range d.disjuncts {
		if !e.IsBottom() {
			return false
		}
	}
	return true
}

func (d Domain) IsTop() bool {
	for _, e := range d.disjuncts {
		if e.IsTop() {
			return true
		}
	}
	return false
}

// smashed folds every disjunct into one via base-domain join. The result is
// the least upper bound of the sequence in the underlying lattice — the
// same fact that makes discarding disjuncts sound (powerset smashing
// soundness: smash(D) ⊒ ⨆ D holds with equality here, since D already
// denotes ⨆ D under the disjunctive reading).
func (d Domain) smashed() domain.BaseDomain {
	acc := d.disjuncts[0]
	for _, e := range d.disjuncts[1:] {
		acc = acc.Join(e)
	}
	return acc
}

func (d Domain) dropBottoms() Domain {
	kept := make([]domain.BaseDomain, 0, len(d.disjuncts))
	for _, e := range d.disjuncts {
		if !e.IsBottom() {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		kept = []domain.BaseDomain{d.base.Bottom()}
	}
	d.disjuncts = kept
	return d
}

// insert appends candidate unless it is already covered (leq) by some
// existing disjunct, pruning any existing disjuncts the candidate now
// dominates. This keeps the sequence free of directly-comparable
// duplicates without changing its join.
func insert(disjuncts []domain.BaseDomain, candidate domain.BaseDomain) []domain.BaseDomain {
	if candidate.IsBottom() {
		return disjuncts
	}
	kept := make([]domain.BaseDomain, 0, len(disjuncts)+1)
	for _, e := range disjuncts {
		if candidate.Leq(e) {
			return disjuncts
		}
		if !e.Leq(candidate) {
			kept = append(kept, e)
		}
	}
	kept = append(kept, candidate)
	return kept
}

// smashTo folds disjuncts into a single element and reports the count that
// were discarded, for the caller to log.
func smashTo(disjuncts []domain.BaseDomain) (domain.BaseDomain, int) {
	acc := disjuncts[0]
	for _, e := range disjuncts[1:] {
		acc = acc.Join(e)
	}
	return acc, len(disjuncts) - 1
}

// Join appends both sides' disjuncts, deduplicating dominated ones, then
// smashes down to the configured cap if the merge overflowed it.
func (d Domain) Join(other domain.BaseDomain) domain.BaseDomain {
	o := asDomain(other)
	merged := append([]domain.BaseDomain(nil), d.disjuncts...)
	for _, e := range o.disjuncts {
		merged = insert(merged, e)
	}
	merged = pruneBottoms(merged, d.base)

	if len(merged) > d.cfg.cap() {
		one, dropped := smashTo(merged)
		d.sink.Warn("powerset: %d disjuncts exceeded the %d-disjunct budget; smashed to one", dropped+1, d.cfg.cap())
		merged = []domain.BaseDomain{one}
	}
	d.disjuncts = merged
	return d
}

func pruneBottoms(ds []domain.BaseDomain, base domain.Family) []domain.BaseDomain {
	kept := make([]domain.BaseDomain, 0, len(ds))
	for _, e := range ds {
		if !e.IsBottom() {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		kept = []domain.BaseDomain{base.Bottom()}
	}
	return kept
}

// Meet is exact (pairwise meet across both sides, dropping bottoms) when
// Config.ExactMeet is set; otherwise both sides are smashed first and met
// in the base domain, trading precision for a bounded result size.
func (d Domain) Meet(other domain.BaseDomain) domain.BaseDomain {
	o := asDomain(other)
	if !d.cfg.ExactMeet {
		d.disjuncts = []domain.BaseDomain{d.smashed().Meet(o.smashed())}
		return d.dropBottoms()
	}

	var out []domain.BaseDomain
	for _, a := range d.disjuncts {
		for _, b := range o.disjuncts {
			m := a.Meet(b)
			if !m.IsBottom() {
				out = insert(out, m)
			}
		}
	}
	if len(out) > d.cfg.cap() {
		one, dropped := smashTo(out)
		d.sink.Warn("powerset: exact meet produced %d disjuncts, exceeding the %d-disjunct budget; smashed to one", dropped+1, d.cfg.cap())
		out = []domain.BaseDomain{one}
	}
	d.disjuncts = out
	return d.dropBottoms()
}

// Widen smashes both sides then delegates: widening a disjunctive sequence
// disjunct-by-disjunct across two rounds whose disjunct counts may differ
// has no obvious sound pairing, and would not guarantee ascending-chain
// termination even if one were picked. Smashing first is the leq/widen/
// narrow policy given in the combinator's contract.
func (d Domain) Widen(other domain.BaseDomain) domain.BaseDomain {
	o := asDomain(other)
	d.disjuncts = []domain.BaseDomain{d.smashed().Widen(o.smashed())}
	return d
}

func (d Domain) WidenWithThresholds(other domain.BaseDomain, thresholds []numeric.Number) domain.BaseDomain {
	o := asDomain(other)
	d.disjuncts = []domain.BaseDomain{d.smashed().WidenWithThresholds(o.smashed(), thresholds)}
	return d
}

func (d Domain) Narrow(other domain.BaseDomain) domain.BaseDomain {
	o := asDomain(other)
	d.disjuncts = []domain.BaseDomain{d.smashed().Narrow(o.smashed())}
	return d
}

// Leq smashes both sides then delegates: sound (⨆D1 ≤ ⨆D2 is implied by no
// disjunct of D1 escaping D2's join) but coarse, since a per-disjunct
// covering check would need each side to be independently minimal.
func (d Domain) Leq(other domain.BaseDomain) bool {
	o := asDomain(other)
	return d.smashed().Leq(o.smashed())
}

// elementwise applies f to every disjunct and rebuilds the sequence,
// pruning any disjunct that became bottom.
func (d Domain) elementwise(f func(domain.BaseDomain) domain.BaseDomain) Domain {
	out := make([]domain.BaseDomain, len(d.disjuncts))
	for i, e := range d.disjuncts {
		out[i] = f(e)
	}
	d.disjuncts = out
	return d.dropBottoms()
}

func (d Domain) Assign(v numeric.VariableName, e numeric.LinearExpression) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.Assign(v, e) })
}

func (d Domain) Apply(op numeric.Operation, x, y, z numeric.VariableName) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.Apply(op, x, y, z) })
}

func (d Domain) ApplyConst(op numeric.Operation, x, y numeric.VariableName, k numeric.Number) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.ApplyConst(op, x, y, k) })
}

func (d Domain) AddConstraint(c numeric.LinearConstraint) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.AddConstraint(c) })
}

func (d Domain) AddConstraintSystem(cs numeric.ConstraintSystem) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.AddConstraintSystem(cs) })
}

func (d Domain) Forget(v numeric.VariableName) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.Forget(v) })
}

func (d Domain) Set(v numeric.VariableName, i domain.Interval) domain.BaseDomain {
	return d.elementwise(func(b domain.BaseDomain) domain.BaseDomain { return b.Set(v, i) })
}

// Get answers with the smashed, i.e. joined, interval across every
// disjunct: the powerset combinator's query is not disjunctive itself.
func (d Domain) Get(v numeric.VariableName) domain.Interval {
	return d.smashed().Get(v)
}

func (d Domain) ToConstraintSystem() numeric.ConstraintSystem {
	return d.smashed().ToConstraintSystem()
}

func (d Domain) Name() string { return "powerset(" + d.disjuncts[0].Name() + ")" }

func (d Domain) String() string {
	parts := make([]string, len(d.disjuncts))
	for i, e := range d.disjuncts {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

func asDomain(b domain.BaseDomain) Domain {
	d, ok := b.(Domain)
	if !ok {
		panic("powerset: operand is not a powerset.Domain")
	}
	return d
}
