package numeric

import (
	"sort"
	"strings"
)

// LinearExpression is c0 + Σ ci·vi over Number coefficients and Variables.
type LinearExpression struct {
	constant Number
	terms    map[VariableName]Number
}

// NewLinearExpression builds a linear expression from a constant term.
func NewLinearExpression(c Number) LinearExpression {
	return LinearExpression{constant: c, terms: map[VariableName]Number{}}
}

// Var builds the linear expression consisting of a single variable with
// unit coefficient.
func Var(v VariableName) LinearExpression {
	e := NewLinearExpression(Zero())
	e.terms[v] = One()
	return e
}

// Const builds a constant linear expression.
func Const(n Number) LinearExpression {
	return NewLinearExpression(n)
}

func (e LinearExpression) clone() LinearExpression {
	terms := make(map[VariableName]Number, len(e.terms))
	for k, v := range e.terms {
		terms[k] = v
	}
	return LinearExpression{constant: e.constant, terms: terms}
}

// Constant returns the constant term c0.
func (e LinearExpression) Constant() Number { return e.constant }

// Coefficient returns the coefficient of v (zero if absent).
func (e LinearExpression) Coefficient(v VariableName) Number {
	if c, ok := e.terms[v]; ok {
		return c
	}
	return Zero()
}

// Variables returns the variables with a nonzero coefficient, in a
// deterministic order (so callers get repeatable iteration).
func (e LinearExpression) Variables() []VariableName {
	vs := make([]VariableName, 0, len(e.terms))
	for v, c := range e.terms {
		if c.Sign() != 0 {
			vs = append(vs, v)
		}
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
	return vs
}

// Add computes e + o.
func (e LinearExpression) Add(o LinearExpression) LinearExpression {
	r := e.clone()
	r.constant = r.constant.Add(o.constant)
	for v, c := range o.terms {
		r.terms[v] = r.Coefficient(v).Add(c)
	}
	return r
}

// Scale computes k*e.
func (e LinearExpression) Scale(k Number) LinearExpression {
	r := e.clone()
	r.constant = r.constant.Mul(k)
	for v, c := range r.terms {
		r.terms[v] = c.Mul(k)
	}
	return r
}

// Sub computes e - o.
func (e LinearExpression) Sub(o LinearExpression) LinearExpression {
	return e.Add(o.Scale(FromInt64(-1)))
}

// IsConstant reports whether e has no variables with a nonzero coefficient.
func (e LinearExpression) IsConstant() bool {
	return len(e.Variables()) == 0
}

func (e LinearExpression) String() string {
	var b strings.Builder
	first := true
	for _, v := range e.Variables() {
		c := e.Coefficient(v)
		if !first {
			if c.Sign() >= 0 {
				b.WriteString(" + ")
			} else {
				b.WriteString(" - ")
			}
		} else if c.Sign() < 0 {
			b.WriteString("-")
		}
		first = false
		abs := c
		if abs.Sign() < 0 {
			abs = abs.Neg()
		}
		if !abs.Eq(One()) {
			b.WriteString(abs.String())
			b.WriteString("*")
		}
		b.WriteString(v.String())
	}
	if first || e.constant.Sign() != 0 {
		if !first {
			if e.constant.Sign() >= 0 {
				b.WriteString(" + ")
			} else {
				b.WriteString(" - ")
			}
			abs := e.constant
			if abs.Sign() < 0 {
				abs = abs.Neg()
			}
			b.WriteString(abs.String())
		} else {
			b.WriteString(e.constant.String())
		}
	}
	return b.String()
}

// LinearConstraint is `expression kind 0`, e.g. `x + y - 3 <= 0`.
type LinearConstraint struct {
	Expr LinearExpression
	Kind ConstraintKind
}

func NewLinearConstraint(e LinearExpression, k ConstraintKind) LinearConstraint {
	return LinearConstraint{Expr: e, Kind: k}
}

func (c LinearConstraint) String() string {
	return c.Expr.String() + " " + c.Kind.String() + " 0"
}

// ConstraintSystem is a conjunction of LinearConstraints.
type ConstraintSystem struct {
	Constraints []LinearConstraint
}

func (s *ConstraintSystem) Add(c LinearConstraint) {
	s.Constraints = append(s.Constraints, c)
}

func (s ConstraintSystem) String() string {
	parts := make([]string, len(s.Constraints))
	for i, c := range s.Constraints {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ∧ ")
}
