// Package domain declares the base domain contract: the external interface
// every concrete numerical lattice must satisfy so it can be lifted by the
// term-equivalence domain (package termdomain) or combined by the powerset
// combinator (package powerset).
package domain

import "github.com/cs-au-dk/absint/numeric"

// Interval is the query result of BaseDomain.Get: a closed bound pair over
// extended integers, forming a lattice with bottom. Concrete domains that
// are not themselves interval-shaped still answer Get by projecting their
// internal representation onto this common result type.
type Interval interface {
	IsBottom() bool
	IsTop() bool
	String() string
	Eq(Interval) bool
}

// BaseDomain is the contract used by the term-equivalence domain and the
// powerset combinator. Any numerical lattice — intervals, octagons, an
// apron binding — is an independent value satisfying this capability
// contract; there is no shared base class.
type BaseDomain interface {
	// Predicates
	IsTop() bool
	IsBottom() bool

	// Lattice
	Leq(BaseDomain) bool
	Join(BaseDomain) BaseDomain
	Meet(BaseDomain) BaseDomain
	Widen(BaseDomain) BaseDomain
	Narrow(BaseDomain) BaseDomain
	WidenWithThresholds(BaseDomain, []numeric.Number) BaseDomain

	// Transfer
	Assign(v numeric.VariableName, e numeric.LinearExpression) BaseDomain
	Apply(op numeric.Operation, x, y, z numeric.VariableName) BaseDomain
	ApplyConst(op numeric.Operation, x, y numeric.VariableName, k numeric.Number) BaseDomain
	AddConstraint(numeric.LinearConstraint) BaseDomain
	AddConstraintSystem(numeric.ConstraintSystem) BaseDomain
	Forget(v numeric.VariableName) BaseDomain
	Set(v numeric.VariableName, i Interval) BaseDomain
	Get(v numeric.VariableName) Interval
	ToConstraintSystem() numeric.ConstraintSystem

	// Name is an owned string identifying the domain, for diagnostics.
	Name() string

	String() string
}

// Family manufactures the two canonical elements of one concrete BaseDomain
// implementation. Wrapping components (termdomain, powerset) hold a Family
// instead of a bare BaseDomain value so they can construct fresh top/bottom
// states without depending on any one implementation's constructor names.
type Family interface {
	Top() BaseDomain
	Bottom() BaseDomain
}
