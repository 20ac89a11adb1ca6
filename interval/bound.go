package interval

import "github.com/cs-au-dk/absint/numeric"

// Bound is an extended-integer interval endpoint: a finite Number, or one
// of the two infinities, generalized from a machine int bound to an
// arbitrary-precision numeric.Number.
type Bound interface {
	String() string
	IsInfinite() bool

	Eq(Bound) bool
	Leq(Bound) bool
	Geq(Bound) bool
	Lt(Bound) bool
	Gt(Bound) bool

	Plus(Bound) Bound
	Minus(Bound) Bound
	Mult(Bound) Bound
	Div(Bound) Bound
	Max(Bound) Bound
	Min(Bound) Bound
}

type (
	// Finite is a finite bound holding an arbitrary-precision Number.
	Finite struct{ N numeric.Number }
	// PlusInf represents +∞.
	PlusInf struct{}
	// MinusInf represents -∞.
	MinusInf struct{}
)

func F(n numeric.Number) Finite { return Finite{n} }

func (Finite) IsInfinite() bool  { return false }
func (PlusInf) IsInfinite() bool { return true }
func (MinusInf) IsInfinite() bool { return true }

func (b Finite) String() string  { return b.N.String() }
func (PlusInf) String() string   { return "+inf" }
func (MinusInf) String() string  { return "-inf" }

func (b1 Finite) Eq(b2 Bound) bool {
	if f, ok := b2.(Finite); ok {
		return b1.N.Eq(f.N)
	}
	return false
}
func (PlusInf) Eq(b2 Bound) bool  { _, ok := b2.(PlusInf); return ok }
func (MinusInf) Eq(b2 Bound) bool { _, ok := b2.(MinusInf); return ok }

func (b1 Finite) Leq(b2 Bound) bool {
	switch b2 := b2.(type) {
	case Finite:
		return b1.N.Leq(b2.N)
	case PlusInf:
		return true
	case MinusInf:
		return false
	}
	panic("unreachable")
}
func (PlusInf) Leq(b2 Bound) bool  { _, ok := b2.(PlusInf); return ok }
func (MinusInf) Leq(Bound) bool    { return true }

func (b1 Finite) Geq(b2 Bound) bool {
	switch b2 := b2.(type) {
	case Finite:
		return b1.N.Geq(b2.N)
	case PlusInf:
		return false
	case MinusInf:
		return true
	}
	panic("unreachable")
}
func (PlusInf) Geq(Bound) bool     { return true }
func (MinusInf) Geq(b2 Bound) bool { _, ok := b2.(MinusInf); return ok }

func (b1 Finite) Lt(b2 Bound) bool {
	switch b2 := b2.(type) {
	case Finite:
		return b1.N.Lt(b2.N)
	case PlusInf:
		return true
	case MinusInf:
		return false
	}
	panic("unreachable")
}
func (PlusInf) Lt(Bound) bool     { return false }
func (MinusInf) Lt(b2 Bound) bool { _, ok := b2.(MinusInf); return !ok }

func (b1 Finite) Gt(b2 Bound) bool {
	switch b2 := b2.(type) {
	case Finite:
		return b1.N.Gt(b2.N)
	case PlusInf:
		return false
	case MinusInf:
		return true
	}
	panic("unreachable")
}
func (PlusInf) Gt(b2 Bound) bool { _, ok := b2.(PlusInf); return !ok }
func (MinusInf) Gt(Bound) bool   { return false }

func (b1 Finite) Plus(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		return Finite{b1.N.Add(b2.N)}
	case PlusInf:
		return PlusInf{}
	case MinusInf:
		return MinusInf{}
	}
	panic("unreachable")
}
func (PlusInf) Plus(b2 Bound) Bound {
	if _, ok := b2.(MinusInf); ok {
		panic("interval: +inf + -inf")
	}
	return PlusInf{}
}
func (MinusInf) Plus(b2 Bound) Bound {
	if _, ok := b2.(PlusInf); ok {
		panic("interval: -inf + +inf")
	}
	return MinusInf{}
}

func (b1 Finite) Minus(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		return Finite{b1.N.Sub(b2.N)}
	case PlusInf:
		return MinusInf{}
	case MinusInf:
		return PlusInf{}
	}
	panic("unreachable")
}
func (PlusInf) Minus(b2 Bound) Bound {
	if _, ok := b2.(PlusInf); ok {
		panic("interval: +inf - +inf")
	}
	return PlusInf{}
}
func (MinusInf) Minus(b2 Bound) Bound {
	if _, ok := b2.(MinusInf); ok {
		panic("interval: -inf - -inf")
	}
	return MinusInf{}
}

func (b1 Finite) Mult(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		return Finite{b1.N.Mul(b2.N)}
	case PlusInf:
		switch {
		case b1.N.Sign() > 0:
			return PlusInf{}
		case b1.N.Sign() < 0:
			return MinusInf{}
		}
		panic("interval: 0 * +inf")
	case MinusInf:
		switch {
		case b1.N.Sign() > 0:
			return MinusInf{}
		case b1.N.Sign() < 0:
			return PlusInf{}
		}
		panic("interval: 0 * -inf")
	}
	panic("unreachable")
}
func (b1 PlusInf) Mult(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		return b2.Mult(b1)
	case PlusInf:
		return PlusInf{}
	case MinusInf:
		return MinusInf{}
	}
	panic("unreachable")
}
func (b1 MinusInf) Mult(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		return b2.Mult(b1)
	case PlusInf:
		return MinusInf{}
	case MinusInf:
		return PlusInf{}
	}
	panic("unreachable")
}

func (b1 Finite) Div(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		if b2.N.Sign() == 0 {
			switch {
			case b1.N.Sign() > 0:
				return PlusInf{}
			case b1.N.Sign() < 0:
				return MinusInf{}
			}
			panic("interval: 0 / 0")
		}
		return Finite{b1.N.Div(b2.N)}
	case PlusInf, MinusInf:
		return Finite{numeric.Zero()}
	}
	panic("unreachable")
}
func (b1 PlusInf) Div(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		switch {
		case b2.N.Sign() > 0:
			return PlusInf{}
		case b2.N.Sign() < 0:
			return MinusInf{}
		}
		panic("interval: +inf / 0")
	default:
		panic("interval: +inf / infinite bound")
	}
}
func (b1 MinusInf) Div(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		switch {
		case b2.N.Sign() > 0:
			return MinusInf{}
		case b2.N.Sign() < 0:
			return PlusInf{}
		}
		panic("interval: -inf / 0")
	default:
		panic("interval: -inf / infinite bound")
	}
}

func (b1 Finite) Max(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		if b1.N.Geq(b2.N) {
			return b1
		}
		return b2
	case PlusInf:
		return b2
	case MinusInf:
		return b1
	}
	panic("unreachable")
}
func (PlusInf) Max(Bound) Bound   { return PlusInf{} }
func (b1 MinusInf) Max(b2 Bound) Bound { return b2 }

func (b1 Finite) Min(b2 Bound) Bound {
	switch b2 := b2.(type) {
	case Finite:
		if b1.N.Leq(b2.N) {
			return b1
		}
		return b2
	case PlusInf:
		return b1
	case MinusInf:
		return b2
	}
	panic("unreachable")
}
func (b1 PlusInf) Min(b2 Bound) Bound { return b2 }
func (MinusInf) Min(Bound) Bound      { return MinusInf{} }
