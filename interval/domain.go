package interval

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/numeric"
)

// Domain is the reference numerical base domain: an environment mapping
// each live VariableName to an Interval. It generalizes a single-value
// interval lattice to a multi-variable environment, the way an
// interval_domain wraps interval<Number> per variable.
type Domain struct {
	bottom bool
	vars   map[numeric.VariableName]Interval
}

// Top is the environment with no constraints (every variable, if queried,
// answers [-inf,+inf]).
func Top() Domain { return Domain{vars: map[numeric.VariableName]Interval{}} }

// Bottom is the unsatisfiable environment.
func Bottom() Domain { return Domain{bottom: true, vars: map[numeric.VariableName]Interval{}} }

// Family manufactures interval.Domain values as a domain.Family, so
// wrapping components can construct fresh top/bottom states without
// depending on this package's constructor names directly.
type Family struct{}

func (Family) Top() domain.BaseDomain    { return Top() }
func (Family) Bottom() domain.BaseDomain { return Bottom() }

func (d Domain) clone() Domain {
	vars := make(map[numeric.VariableName]Interval, len(d.vars))
	for k, v := range d.vars {
		vars[k] = v
	}
	return Domain{bottom: d.bottom, vars: vars}
}

func (d Domain) IsTop() bool {
	if d.bottom {
		return false
	}
	for _, i := range d.vars {
		if !i.IsTop() {
			return false
		}
	}
	return true
}

func (d Domain) IsBottom() bool { return d.bottom }

func (d Domain) Name() string { return "interval" }

func (d Domain) String() string {
	if d.bottom {
		return "⊥"
	}
	names := make([]numeric.VariableName, 0, len(d.vars))
	for v, i := range d.vars {
		if !i.IsTop() {
			names = append(names, v)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
	parts := make([]string, len(names))
	for idx, v := range names {
		parts[idx] = v.String() + " -> " + d.vars[v].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d Domain) get(v numeric.VariableName) Interval {
	if d.bottom {
		return Bot()
	}
	if i, ok := d.vars[v]; ok {
		return i
	}
	return Full()
}

func (d Domain) Get(v numeric.VariableName) domain.Interval { return d.get(v) }

func asDomain(bd domain.BaseDomain) Domain {
	d, ok := bd.(Domain)
	if !ok {
		panic("interval: incompatible base domain in binary operation")
	}
	return d
}

func (d Domain) Leq(other domain.BaseDomain) bool {
	o := asDomain(other)
	if d.bottom {
		return true
	}
	if o.bottom {
		return false
	}
	for v := range union(d.vars, o.vars) {
		if !d.get(v).Leq(o.get(v)) {
			return false
		}
	}
	return true
}

func union(a, b map[numeric.VariableName]Interval) map[numeric.VariableName]struct{} {
	u := make(map[numeric.VariableName]struct{}, len(a)+len(b))
	for v := range a {
		u[v] = struct{}{}
	}
	for v := range b {
		u[v] = struct{}{}
	}
	return u
}

func (d Domain) pointwise(other domain.BaseDomain, op func(a, b Interval) Interval) Domain {
	o := asDomain(other)
	if d.bottom {
		return o
	}
	if o.bottom {
		return d
	}
	res := Domain{vars: map[numeric.VariableName]Interval{}}
	for v := range union(d.vars, o.vars) {
		i := op(d.get(v), o.get(v))
		if !i.IsTop() {
			res.vars[v] = i
		}
		if i.IsBottom() {
			return Bottom()
		}
	}
	return res
}

func (d Domain) Join(other domain.BaseDomain) domain.BaseDomain {
	return d.pointwise(other, Interval.Join)
}

func (d Domain) Meet(other domain.BaseDomain) domain.BaseDomain {
	o := asDomain(other)
	if d.bottom || o.bottom {
		return Bottom()
	}
	res := Domain{vars: map[numeric.VariableName]Interval{}}
	for v := range union(d.vars, o.vars) {
		i := d.get(v).Meet(o.get(v))
		if i.IsBottom() {
			return Bottom()
		}
		if !i.IsTop() {
			res.vars[v] = i
		}
	}
	return res
}

func (d Domain) Widen(other domain.BaseDomain) domain.BaseDomain {
	return d.pointwise(other, Interval.Widen)
}

func (d Domain) Narrow(other domain.BaseDomain) domain.BaseDomain {
	if d.bottom || asDomain(other).bottom {
		return Bottom()
	}
	return d.pointwise(other, Interval.Narrow)
}

func (d Domain) WidenWithThresholds(other domain.BaseDomain, jumpSet []numeric.Number) domain.BaseDomain {
	return d.pointwise(other, func(a, b Interval) Interval { return a.WidenThresholds(b, jumpSet) })
}

// eval evaluates a linear expression to the smallest interval containing
// every concrete value it can take under d.
func (d Domain) eval(e numeric.LinearExpression) Interval {
	acc := Point(e.Constant())
	for _, v := range e.Variables() {
		term := d.get(v).Mul(Point(e.Coefficient(v)))
		acc = acc.Add(term)
	}
	return acc
}

func (d Domain) Assign(v numeric.VariableName, e numeric.LinearExpression) domain.BaseDomain {
	if d.bottom {
		return d
	}
	r := d.clone()
	i := d.eval(e)
	if i.IsTop() {
		delete(r.vars, v)
	} else {
		r.vars[v] = i
	}
	return r
}

func (d Domain) applyOp(op numeric.Operation, y, z Interval) Interval {
	switch op {
	case numeric.OpAdd:
		return y.Add(z)
	case numeric.OpSub:
		return y.Sub(z)
	case numeric.OpMul:
		return y.Mul(z)
	case numeric.OpDiv, numeric.OpSDiv, numeric.OpRem:
		return y.Div(z)
	default:
		// Bitwise operations have no precise interval semantics; the
		// caller (termdomain) is responsible for a sound coarse fallback
		// when it needs one.
		return Full()
	}
}

func (d Domain) Apply(op numeric.Operation, x, y, z numeric.VariableName) domain.BaseDomain {
	if d.bottom {
		return d
	}
	r := d.clone()
	i := d.applyOp(op, d.get(y), d.get(z))
	if i.IsBottom() {
		return Bottom()
	}
	if i.IsTop() {
		delete(r.vars, x)
	} else {
		r.vars[x] = i
	}
	return r
}

func (d Domain) ApplyConst(op numeric.Operation, x, y numeric.VariableName, k numeric.Number) domain.BaseDomain {
	if d.bottom {
		return d
	}
	r := d.clone()
	i := d.applyOp(op, d.get(y), Point(k))
	if i.IsBottom() {
		return Bottom()
	}
	if i.IsTop() {
		delete(r.vars, x)
	} else {
		r.vars[x] = i
	}
	return r
}

func (d Domain) AddConstraint(c numeric.LinearConstraint) domain.BaseDomain {
	if d.bottom {
		return d
	}
	// Only single-variable constraints are tightened precisely; anything
	// more relational is beyond a non-relational interval domain and is
	// admitted without narrowing (still sound).
	vars := c.Expr.Variables()
	if len(vars) != 1 {
		return d
	}
	v := vars[0]
	coeff := c.Expr.Coefficient(v)
	// coeff*v + rest kind 0  =>  v kind' (-rest/coeff)
	rest := c.Expr.Constant()
	bound := Point(rest.Neg().Div(coeff))
	cur := d.get(v)
	var tightened Interval
	switch c.Kind {
	case numeric.KindEQ:
		tightened = cur.Meet(bound)
	case numeric.KindLEQ:
		if coeff.Sign() > 0 {
			tightened = cur.Meet(Range(MinusInf{}, bound.High))
		} else {
			tightened = cur.Meet(Range(bound.Low, PlusInf{}))
		}
	case numeric.KindLT:
		if coeff.Sign() > 0 {
			tightened = cur.Meet(Range(MinusInf{}, Finite{bound.High.(Finite).N.Sub(numeric.One())}))
		} else {
			tightened = cur.Meet(Range(Finite{bound.Low.(Finite).N.Add(numeric.One())}, PlusInf{}))
		}
	default:
		tightened = cur
	}
	if tightened.IsBottom() {
		return Bottom()
	}
	r := d.clone()
	if tightened.IsTop() {
		delete(r.vars, v)
	} else {
		r.vars[v] = tightened
	}
	return r
}

func (d Domain) AddConstraintSystem(cs numeric.ConstraintSystem) domain.BaseDomain {
	var res domain.BaseDomain = d
	for _, c := range cs.Constraints {
		res = res.AddConstraint(c)
	}
	return res
}

func (d Domain) Forget(v numeric.VariableName) domain.BaseDomain {
	if d.bottom {
		return d
	}
	r := d.clone()
	delete(r.vars, v)
	return r
}

func (d Domain) Set(v numeric.VariableName, i domain.Interval) domain.BaseDomain {
	if d.bottom {
		return d
	}
	iv, ok := i.(Interval)
	if !ok {
		panic("interval: Set called with a foreign Interval implementation")
	}
	r := d.clone()
	if iv.IsBottom() {
		return Bottom()
	}
	if iv.IsTop() {
		delete(r.vars, v)
	} else {
		r.vars[v] = iv
	}
	return r
}

func (d Domain) ToConstraintSystem() numeric.ConstraintSystem {
	var cs numeric.ConstraintSystem
	if d.bottom {
		// An unsatisfiable system: 0 = 1.
		cs.Add(numeric.NewLinearConstraint(numeric.Const(numeric.One()), numeric.KindEQ))
		return cs
	}
	names := make([]numeric.VariableName, 0, len(d.vars))
	for v := range d.vars {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
	for _, v := range names {
		iv := d.vars[v]
		if iv.IsTop() {
			continue
		}
		if n, ok := iv.Singleton(); ok {
			cs.Add(numeric.NewLinearConstraint(numeric.Var(v).Sub(numeric.Const(n)), numeric.KindEQ))
			continue
		}
		if lo, ok := iv.Low.(Finite); ok {
			cs.Add(numeric.NewLinearConstraint(numeric.Const(lo.N).Sub(numeric.Var(v)), numeric.KindLEQ))
		}
		if hi, ok := iv.High.(Finite); ok {
			cs.Add(numeric.NewLinearConstraint(numeric.Var(v).Sub(numeric.Const(hi.N)), numeric.KindLEQ))
		}
	}
	return cs
}
