// Package term implements the hash-consed term DAG: the Const/App table
// shared by the term-equivalence domain's anti-unification machinery.
package term

import (
	"strconv"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/absint/numeric"
)

// Id is a dense non-negative index into a Table. Stable within one table;
// never meaningful across tables.
type Id int

// Hash and Equal satisfy numeric.HashableEq so Id can key an immutable.Map,
// the way a Table's parent-set index does.
func (id Id) Hash() uint32    { return uint32(id) }
func (id Id) Equal(o Id) bool { return id == o }

// Kind tags what a Term is.
type Kind int

const (
	KindFreeVar Kind = iota
	KindConst
	KindApp
)

// Term is a tagged record: a free-variable placeholder, a Const, or a
// binary functor App.
type Term struct {
	Kind  Kind
	Const numeric.Number
	Op    numeric.Operation
	Arg0  Id
	Arg1  Id

	depth   int
	parents *immutable.Map[Id, struct{}]
}

func (t Term) IsApp() bool { return t.Kind == KindApp }

func (t Term) String() string {
	switch t.Kind {
	case KindConst:
		return t.Const.String()
	case KindApp:
		return "(" + t.Op.String() + " " + strconv.Itoa(int(t.Arg0)) + " " + strconv.Itoa(int(t.Arg1)) + ")"
	default:
		return "free"
	}
}
