package interval

import (
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/numeric"
)

// Interval is a closed bound pair over extended integers, forming a
// lattice with bottom, generalized to numeric.Number bounds.
type Interval struct {
	Low, High Bound
}

// Full is the interval [-inf, +inf], the identity element for Meet. Named
// distinctly from the environment-level Top (interval/domain.go) which
// this package also exports.
func Full() Interval { return Interval{MinusInf{}, PlusInf{}} }

// Bot is the empty interval, represented as [+inf, -inf].
func Bot() Interval { return Interval{PlusInf{}, MinusInf{}} }

// Point builds the singleton interval [n, n].
func Point(n numeric.Number) Interval { return Interval{Finite{n}, Finite{n}} }

// Range builds [lo, hi].
func Range(lo, hi Bound) Interval { return Interval{lo, hi} }

func (i Interval) IsBottom() bool { return i.High.Lt(i.Low) }
func (i Interval) IsTop() bool {
	_, lo := i.Low.(MinusInf)
	_, hi := i.High.(PlusInf)
	return lo && hi
}

func (i Interval) String() string {
	if i.IsBottom() {
		return "⊥"
	}
	return "[" + i.Low.String() + ", " + i.High.String() + "]"
}

func (i1 Interval) Leq(i2 Interval) bool {
	if i1.IsBottom() {
		return true
	}
	if i2.IsBottom() {
		return false
	}
	return i2.Low.Leq(i1.Low) && i1.High.Leq(i2.High)
}

func (i1 Interval) eq(i2 Interval) bool { return i1.Leq(i2) && i2.Leq(i1) }

// Eq satisfies domain.Interval; it reports false for any i2 that is not
// itself an interval.Interval rather than panicking, since equality
// checks are used for change-detection, not lattice operations.
func (i1 Interval) Eq(i2 domain.Interval) bool {
	o, ok := i2.(Interval)
	if !ok {
		return false
	}
	return i1.eq(o)
}

func (i1 Interval) Join(i2 Interval) Interval {
	if i1.IsBottom() {
		return i2
	}
	if i2.IsBottom() {
		return i1
	}
	return Interval{i1.Low.Min(i2.Low), i1.High.Max(i2.High)}
}

func (i1 Interval) Meet(i2 Interval) Interval {
	if i1.IsBottom() || i2.IsBottom() {
		return Bot()
	}
	lo := i1.Low.Max(i2.Low)
	hi := i1.High.Min(i2.High)
	if hi.Lt(lo) {
		return Bot()
	}
	return Interval{lo, hi}
}

// Widen is the classical interval widening: a bound that moved outward
// snaps to infinity, guaranteeing termination of ascending chains.
func (i1 Interval) Widen(i2 Interval) Interval {
	if i1.IsBottom() {
		return i2
	}
	if i2.IsBottom() {
		return i1
	}
	lo := i1.Low
	if i2.Low.Lt(i1.Low) {
		lo = MinusInf{}
	}
	hi := i1.High
	if i2.High.Gt(i1.High) {
		hi = PlusInf{}
	}
	return Interval{lo, hi}
}

// WidenThresholds widens but snaps outward-moving bounds to the nearest
// enclosing threshold from jumpSet rather than straight to infinity.
func (i1 Interval) WidenThresholds(i2 Interval, jumpSet []numeric.Number) Interval {
	if i1.IsBottom() {
		return i2
	}
	if i2.IsBottom() {
		return i1
	}
	lo := i1.Low
	if i2.Low.Lt(i1.Low) {
		lo = MinusInf{}
		for _, t := range jumpSet {
			tb := Finite{t}
			if tb.Leq(i2.Low) && i1.Low.Gt(tb) {
				if _, isMinus := lo.(MinusInf); isMinus || tb.Gt(lo) {
					lo = tb
				}
			}
		}
	}
	hi := i1.High
	if i2.High.Gt(i1.High) {
		hi = PlusInf{}
		for _, t := range jumpSet {
			tb := Finite{t}
			if tb.Geq(i2.High) && i1.High.Lt(tb) {
				if _, isPlus := hi.(PlusInf); isPlus || tb.Lt(hi) {
					hi = tb
				}
			}
		}
	}
	return Interval{lo, hi}
}

// Narrow tightens an infinite bound inherited from widening back toward
// i2's bound, but never loses soundness by moving past it.
func (i1 Interval) Narrow(i2 Interval) Interval {
	if i1.IsBottom() || i2.IsBottom() {
		return Bot()
	}
	lo := i1.Low
	if _, isMinus := i1.Low.(MinusInf); isMinus {
		lo = i2.Low
	}
	hi := i1.High
	if _, isPlus := i1.High.(PlusInf); isPlus {
		hi = i2.High
	}
	return Interval{lo, hi}
}

func (i Interval) Add(o Interval) Interval {
	if i.IsBottom() || o.IsBottom() {
		return Bot()
	}
	return Interval{i.Low.Plus(o.Low), i.High.Plus(o.High)}
}

func (i Interval) Sub(o Interval) Interval {
	if i.IsBottom() || o.IsBottom() {
		return Bot()
	}
	return Interval{i.Low.Minus(o.High), i.High.Minus(o.Low)}
}

func (i Interval) Mul(o Interval) Interval {
	if i.IsBottom() || o.IsBottom() {
		return Bot()
	}
	candidates := []Bound{
		i.Low.Mult(o.Low), i.Low.Mult(o.High),
		i.High.Mult(o.Low), i.High.Mult(o.High),
	}
	lo, hi := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		lo = lo.Min(c)
		hi = hi.Max(c)
	}
	return Interval{lo, hi}
}

// Div computes truncated interval division. A divisor interval spanning
// zero is split at zero and the two halves are joined; a divisor equal to
// the single point zero yields bottom (division is undefined there).
func (i Interval) Div(o Interval) Interval {
	if i.IsBottom() || o.IsBottom() {
		return Bot()
	}
	zero := Finite{numeric.Zero()}
	if o.Low.Eq(zero) && o.High.Eq(zero) {
		return Bot()
	}
	var parts []Interval
	if o.Low.Lt(zero) && zero.Lt(o.High) {
		parts = append(parts, Interval{o.Low, Finite{numeric.FromInt64(-1)}})
		parts = append(parts, Interval{Finite{numeric.One()}, o.High})
	} else {
		parts = []Interval{o}
	}
	res := Bot()
	for _, p := range parts {
		candidates := []Bound{
			i.Low.Div(p.Low), i.Low.Div(p.High),
			i.High.Div(p.Low), i.High.Div(p.High),
		}
		lo, hi := candidates[0], candidates[0]
		for _, c := range candidates[1:] {
			lo = lo.Min(c)
			hi = hi.Max(c)
		}
		res = res.Join(Interval{lo, hi})
	}
	return res
}

// Singleton reports whether the interval is a single finite point, and
// returns it.
func (i Interval) Singleton() (numeric.Number, bool) {
	lo, lok := i.Low.(Finite)
	hi, hok := i.High.(Finite)
	if lok && hok && lo.N.Eq(hi.N) {
		return lo.N, true
	}
	return numeric.Zero(), false
}
