package numeric

import (
	"hash/fnv"
	"math/big"
)

// Number is an arbitrary-precision integer, the scalar type underlying
// every constant, bound and coefficient in this package.
type Number struct {
	v *big.Int
}

// FromInt64 wraps a machine integer as a Number.
func FromInt64(n int64) Number {
	return Number{big.NewInt(n)}
}

// FromString parses a base-10 integer literal.
func FromString(s string) (Number, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Number{}, false
	}
	return Number{v}, true
}

// Zero is the additive identity.
func Zero() Number { return FromInt64(0) }

// One is the multiplicative identity.
func One() Number { return FromInt64(1) }

func (n Number) big() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return n.v
}

func (n Number) Add(m Number) Number { return Number{new(big.Int).Add(n.big(), m.big())} }
func (n Number) Sub(m Number) Number { return Number{new(big.Int).Sub(n.big(), m.big())} }
func (n Number) Mul(m Number) Number { return Number{new(big.Int).Mul(n.big(), m.big())} }
func (n Number) Neg() Number         { return Number{new(big.Int).Neg(n.big())} }

// Div computes truncated integer division. Panics on division by zero,
// matching the panic-on-invariant-violation policy for programmer error.
func (n Number) Div(m Number) Number {
	if m.Sign() == 0 {
		panic("numeric: division by zero")
	}
	return Number{new(big.Int).Quo(n.big(), m.big())}
}

func (n Number) Sign() int      { return n.big().Sign() }
func (n Number) Cmp(m Number) int { return n.big().Cmp(m.big()) }
func (n Number) Eq(m Number) bool { return n.Cmp(m) == 0 }
func (n Number) Lt(m Number) bool { return n.Cmp(m) < 0 }
func (n Number) Leq(m Number) bool { return n.Cmp(m) <= 0 }
func (n Number) Gt(m Number) bool { return n.Cmp(m) > 0 }
func (n Number) Geq(m Number) bool { return n.Cmp(m) >= 0 }

func (n Number) Int64() int64 { return n.big().Int64() }

func (n Number) String() string { return n.big().String() }

// Hash satisfies Hashable so Numbers may key term-table hash-cons buckets.
func (n Number) Hash() uint32 {
	h := fnv.New32a()
	h.Write(n.big().Bytes())
	if n.Sign() < 0 {
		h.Write([]byte{0xff})
	}
	return h.Sum32()
}

func (n Number) Equal(m Number) bool { return n.Eq(m) }
