package term

import (
	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/absint/numeric"
)

var idHasher = numeric.HashableHasher[Id]()

type ftorKey struct {
	op   numeric.Operation
	a, b Id
}

// Table is a hash-consed arena of Terms, indexed densely by Id. Terms are
// never deleted; the table grows monotonically within one domain instance.
//
// Hash-consing of commutative operators is deliberately NOT canonicalized:
// ApplyFtor hashes (op, a, b) in the order given. Canonicalizing commutative
// argument order would improve term sharing (e.g. a+b and b+a would
// collapse) but this implementation takes the conservative, literal one.
type Table struct {
	terms  []Term
	consts map[string]Id
	ftors  map[ftorKey]Id
}

// NewTable creates an empty term table.
func NewTable() *Table {
	return &Table{
		consts: map[string]Id{},
		ftors:  map[ftorKey]Id{},
	}
}

// Size returns the number of terms currently in the table.
func (t *Table) Size() int { return len(t.terms) }

// Get returns the term record for id. Panics if id is out of range.
func (t *Table) Get(id Id) Term {
	if int(id) < 0 || int(id) >= len(t.terms) {
		panic("term: id out of range")
	}
	return t.terms[id]
}

func (t *Table) insert(term Term) Id {
	id := Id(len(t.terms))
	term.parents = immutable.NewMap[Id, struct{}](idHasher)
	t.terms = append(t.terms, term)
	return id
}

func (t *Table) addParent(child, parent Id) {
	t.terms[child].parents = t.terms[child].parents.Set(parent, struct{}{})
}

// FreshVar allocates a sentinel App-less term: a free-variable placeholder
// used to stand for a program variable with no known defining term.
func (t *Table) FreshVar() Id {
	return t.insert(Term{Kind: KindFreeVar})
}

// FindConst looks up the Const term for n without creating one.
func (t *Table) FindConst(n numeric.Number) (Id, bool) {
	id, ok := t.consts[n.String()]
	return id, ok
}

// MakeConst returns the Const term for n, creating it if absent.
func (t *Table) MakeConst(n numeric.Number) Id {
	if id, ok := t.FindConst(n); ok {
		return id
	}
	id := t.insert(Term{Kind: KindConst, Const: n})
	t.consts[n.String()] = id
	return id
}

// FindFtor looks up the App term for (op, a, b) without creating one.
func (t *Table) FindFtor(op numeric.Operation, a, b Id) (Id, bool) {
	id, ok := t.ftors[ftorKey{op, a, b}]
	return id, ok
}

// ApplyFtor returns the existing App term for (op, a, b) if present;
// otherwise creates one, registers it as a parent of a and of b, and sets its
// depth to 1 + max(depth(a), depth(b)).
func (t *Table) ApplyFtor(op numeric.Operation, a, b Id) Id {
	if id, ok := t.FindFtor(op, a, b); ok {
		return id
	}
	d := t.Depth(a)
	if db := t.Depth(b); db > d {
		d = db
	}
	id := t.insert(Term{Kind: KindApp, Op: op, Arg0: a, Arg1: b})
	t.terms[id].depth = d + 1
	t.addParent(a, id)
	t.addParent(b, id)
	t.ftors[ftorKey{op, a, b}] = id
	return id
}

// Depth(t) = 0 for Const/free terms; 1 + max(depth of children) for App.
func (t *Table) Depth(id Id) int {
	return t.terms[id].depth
}

// Parents returns the set of ids whose App args include id.
func (t *Table) Parents(id Id) []Id {
	m := t.terms[id].parents
	out := make([]Id, 0, m.Len())
	itr := m.Iterator()
	for !itr.Done() {
		p, _, _ := itr.Next()
		out = append(out, p)
	}
	return out
}

// LeqMap is the partial mapping from one table's Ids to another's built by
// MapLeq.
type LeqMap map[Id]Id

// MapLeq attempts to extend m so that every subterm of tY in other is
// covered by a compatible subterm of tX in self. It reports whether the
// attempt succeeded; on failure m may have been partially extended and
// must be discarded by the caller.
func (self *Table) MapLeq(other *Table, tX, tY Id, m LeqMap) bool {
	ty := other.Get(tY)
	if ty.Kind != KindApp {
		// tY is a free-variable-or-leaf term: it may stand for anything,
		// so it succeeds by binding to tX (or checking consistency with a
		// prior binding).
		if bound, ok := m[tY]; ok {
			return bound == tX
		}
		m[tY] = tX
		return true
	}
	tx := self.Get(tX)
	if tx.Kind != KindApp || tx.Op != ty.Op {
		return false
	}
	return self.MapLeq(other, tx.Arg0, ty.Arg0, m) &&
		self.MapLeq(other, tx.Arg1, ty.Arg1, m)
}

// GenPair is a memoization key for Generalize: a pair of term ids drawn
// from two different tables.
type GenPair struct {
	X, Y Id
}

// GenMap memoizes generalize(t_x, t_y) -> term id in the output table.
type GenMap map[GenPair]Id

// Generalize computes the anti-unifier of tX (in self) and tY (in other):
// the most specific term in out that has each as an instance. Results are
// memoized in gen so repeated pairs — common once a program variable's
// term is shared across several others — are computed once.
func (self *Table) Generalize(other *Table, tX, tY Id, out *Table, gen GenMap) Id {
	key := GenPair{tX, tY}
	if id, ok := gen[key]; ok {
		return id
	}

	x, y := self.Get(tX), other.Get(tY)
	var result Id
	switch {
	case x.Kind == KindConst && y.Kind == KindConst && x.Const.Eq(y.Const):
		result = out.MakeConst(x.Const)
	case x.Kind == KindApp && y.Kind == KindApp && x.Op == y.Op:
		a := self.Generalize(other, x.Arg0, y.Arg0, out, gen)
		b := self.Generalize(other, x.Arg1, y.Arg1, out, gen)
		result = out.ApplyFtor(x.Op, a, b)
	default:
		result = out.FreshVar()
	}
	gen[key] = result
	return result
}
