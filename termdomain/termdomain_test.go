package termdomain

import (
	"testing"

	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/interval"
	"github.com/cs-au-dk/absint/numeric"
)

var fam = interval.Family{}

func fresh() *numeric.VarFactory { return numeric.NewVarFactory() }

func getInterval(t *testing.T, d domain.BaseDomain, v numeric.VariableName) interval.Interval {
	t.Helper()
	iv, ok := d.Get(v).(interval.Interval)
	if !ok {
		t.Fatalf("Get(%v) did not return an interval.Interval: %v", v, d.Get(v))
	}
	return iv
}

func TestTopBottom(t *testing.T) {
	top := Top(fam)
	if top.IsBottom() {
		t.Error("Top() reported bottom")
	}
	if !top.IsTop() {
		t.Error("Top() did not report top")
	}

	bot := Bottom(fam)
	if !bot.IsBottom() {
		t.Error("Bottom() did not report bottom")
	}
	if bot.IsTop() {
		t.Error("Bottom() reported top")
	}
}

func TestLeqReflexive(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")

	d := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(3)))
	if !d.Leq(d) {
		t.Error("d ≤ d failed for a non-trivial state")
	}
	if !Top(fam).Leq(Top(fam)) {
		t.Error("Top ≤ Top failed")
	}
	if !Bottom(fam).Leq(Bottom(fam)) {
		t.Error("Bottom ≤ Bottom failed")
	}
}

func TestBottomIsLeastAndTopIsGreatest(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")
	d := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(3)))

	if !domain.BaseDomain(Bottom(fam)).Leq(d) {
		t.Error("Bottom ≤ d failed")
	}
	if !d.Leq(Top(fam)) {
		t.Error("d ≤ Top failed")
	}
}

func TestJoinIsUpperBound(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")

	left := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(1)))
	right := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(5)))
	joined := left.Join(right)

	if !left.Leq(joined) {
		t.Error("left ≤ join(left, right) failed")
	}
	if !right.Leq(joined) {
		t.Error("right ≤ join(left, right) failed")
	}
}

func TestMeetIsLowerBound(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")

	left := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(1)))
	right := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(5)))
	met := left.Meet(right)

	if !met.Leq(left) {
		t.Error("meet(left, right) ≤ left failed")
	}
	if !met.Leq(right) {
		t.Error("meet(left, right) ≤ right failed")
	}
}

// TestAssignSharedExprEquates is scenario 1: two variables built from the
// same expression, applied via hash-consing, come out equal for free.
func TestAssignSharedExprEquates(t *testing.T) {
	vf := fresh()
	x, y, a := vf.Fresh("x"), vf.Fresh("y"), vf.Fresh("a")

	var d domain.BaseDomain = Top(fam)
	d = d.Set(a, interval.Range(interval.Finite{N: numeric.FromInt64(0)}, interval.Finite{N: numeric.FromInt64(10)}))
	d = d.Apply(numeric.OpAdd, x, a, a)
	// y := a + a, the identical expression as x
	d = d.Apply(numeric.OpAdd, y, a, a)

	cs := d.(Domain).ToConstraintSystem()
	found := false
	for _, c := range cs.Constraints {
		if c.Kind != numeric.KindEQ {
			continue
		}
		vars := c.Expr.Variables()
		if len(vars) != 2 {
			continue
		}
		names := map[numeric.VariableName]bool{vars[0]: true, vars[1]: true}
		if names[x] && names[y] {
			found = true
		}
	}
	if !found {
		t.Errorf("expected x=y in constraint system after x,y := a+a, a+a; got %v", cs)
	}
}

// TestJoinAntiUnifiesDivergentBranches is scenario 1 from the join side: two
// branches build y as x+2 from different concrete values of x. The join
// only combines the two branches' base-domain values for y pointwise, but
// anti-unification keeps y's term structurally tied to x's term, so a
// later tightening of x still propagates to y through normalization.
func TestJoinAntiUnifiesDivergentBranches(t *testing.T) {
	vf := fresh()
	x, y := vf.Fresh("x"), vf.Fresh("y")

	branch := func(base int64) domain.BaseDomain {
		var d domain.BaseDomain = Top(fam)
		d = d.Assign(x, numeric.Const(numeric.FromInt64(base)))
		d = d.ApplyConst(numeric.OpAdd, y, x, numeric.FromInt64(2))
		return d
	}

	joined := branch(0).Join(branch(10))

	joined = joined.AddConstraint(numeric.NewLinearConstraint(
		numeric.Var(x).Sub(numeric.Const(numeric.FromInt64(3))), numeric.KindLEQ))

	yi := getInterval(t, joined, y)
	want := interval.Range(interval.Finite{N: numeric.FromInt64(2)}, interval.Finite{N: numeric.FromInt64(5)})
	if !yi.Leq(want) {
		t.Errorf("expected y tightened to at most %v after asserting x<=3, got %v", want, yi)
	}
}

// TestNoCommutativeCanonicalization documents the deliberate policy
// decision (recorded in term.Table's doc comment) that a+b and b+a are
// distinct hash-consed terms: x and y below are NOT reported equal even
// though they denote the same value under any base-domain interpretation.
func TestNoCommutativeCanonicalization(t *testing.T) {
	vf := fresh()
	a, b, x, y := vf.Fresh("a"), vf.Fresh("b"), vf.Fresh("x"), vf.Fresh("y")

	var d domain.BaseDomain = Top(fam)
	d = d.Assign(a, numeric.Const(numeric.Zero()))
	d = d.Assign(b, numeric.Const(numeric.One()))
	d = d.Apply(numeric.OpAdd, x, a, b)
	d = d.Apply(numeric.OpAdd, y, b, a)

	cs := d.(Domain).ToConstraintSystem()
	for _, c := range cs.Constraints {
		if c.Kind != numeric.KindEQ {
			continue
		}
		vars := c.Expr.Variables()
		if len(vars) != 2 {
			continue
		}
		names := map[numeric.VariableName]bool{vars[0]: true, vars[1]: true}
		if names[x] && names[y] {
			t.Fatalf("x=y should not follow from a+b and b+a under literal hash-consing, got %v", cs)
		}
	}
}

// TestNormalizationTightensSiblings is scenario 5: z := x + y with x, y
// starting at [0,10], then adding z <= 5 should tighten both x and y to
// [0,5] via downward propagation.
func TestNormalizationTightensSiblings(t *testing.T) {
	vf := fresh()
	x, y, z := vf.Fresh("x"), vf.Fresh("y"), vf.Fresh("z")

	rng := interval.Range(interval.Finite{N: numeric.Zero()}, interval.Finite{N: numeric.FromInt64(10)})

	var d domain.BaseDomain = Top(fam)
	d = d.Set(x, rng)
	d = d.Set(y, rng)
	d = d.Apply(numeric.OpAdd, z, x, y)

	c := numeric.NewLinearConstraint(numeric.Var(z).Sub(numeric.Const(numeric.FromInt64(5))), numeric.KindLEQ)
	d = d.AddConstraint(c)

	xi := getInterval(t, d, x)
	yi := getInterval(t, d, y)
	want := interval.Range(interval.Finite{N: numeric.Zero()}, interval.Finite{N: numeric.FromInt64(5)})
	if !xi.Leq(want) || !want.Leq(xi) {
		t.Errorf("expected x tightened to %v, got %v", want, xi)
	}
	if !yi.Leq(want) || !want.Leq(yi) {
		t.Errorf("expected y tightened to %v, got %v", want, yi)
	}
}

// TestContradictoryEqualitiesCollapseToBottom is scenario 6.
func TestContradictoryEqualitiesCollapseToBottom(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")

	var d domain.BaseDomain = Top(fam)
	d = d.Assign(x, numeric.Const(numeric.Zero()))
	d = d.Assign(x, numeric.Const(numeric.Zero()))
	if d.IsBottom() {
		t.Fatal("assigning x twice with the same constant should not be bottom")
	}

	d = d.AddConstraint(numeric.NewLinearConstraint(numeric.Var(x).Sub(numeric.Const(numeric.One())), numeric.KindEQ))
	if !d.IsBottom() {
		t.Errorf("expected bottom after asserting x=1 while x=0 held, got %v", d)
	}
}

func TestForgetDropsBinding(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")

	var d domain.BaseDomain = Top(fam)
	d = d.Assign(x, numeric.Const(numeric.FromInt64(7)))
	d = d.Forget(x)

	iv := getInterval(t, d, x)
	if !iv.IsTop() {
		t.Errorf("expected x unconstrained after Forget, got %v", iv)
	}
}

// TestExpandCopiesWithoutAliasing is spec.md's expand(x, y) example: right
// after Expand, y reads whatever term x currently holds, but the two stay
// independent afterward — a later Assign to x must not move y, since y was
// bound to x's TermId at the moment of the call, not to x itself.
func TestExpandCopiesWithoutAliasing(t *testing.T) {
	vf := fresh()
	x, y := vf.Fresh("x"), vf.Fresh("y")

	var d domain.BaseDomain = Top(fam)
	d = d.Assign(x, numeric.Const(numeric.FromInt64(7)))
	d = d.(Domain).Expand(x, y)

	xi := getInterval(t, d, x)
	yi := getInterval(t, d, y)
	if !xi.Leq(yi) || !yi.Leq(xi) {
		t.Fatalf("expected y == x immediately after Expand, got x=%v y=%v", xi, yi)
	}

	d = d.Assign(x, numeric.Const(numeric.FromInt64(9)))
	xi = getInterval(t, d, x)
	yi = getInterval(t, d, y)
	if !yi.Leq(interval.Point(numeric.FromInt64(7))) || !interval.Point(numeric.FromInt64(7)).Leq(yi) {
		t.Errorf("expected y to keep its value of 7 after reassigning x, got %v", yi)
	}
	if !xi.Leq(interval.Point(numeric.FromInt64(9))) || !interval.Point(numeric.FromInt64(9)).Leq(xi) {
		t.Errorf("expected x reassigned to 9, got %v", xi)
	}
}

// TestLeqRejectsIndependentlyBoundDisjointVariable guards against proxy-name
// collision between two domains built from scratch: each domain's proxy
// allocator starts counting at zero with the same prefix, so self's first
// bound variable and other's first bound variable mint the identical
// VariableName purely by coincidence, with no relation to each other.
// self only binds x; other only binds a disjoint variable y to the same
// concrete value x has. self is not a subset of other (other pins y, which
// self leaves totally unconstrained), so Leq must be false — it must not
// let self's and other's unrelated first proxies compare equal to each
// other just because they happen to share a name.
func TestLeqRejectsIndependentlyBoundDisjointVariable(t *testing.T) {
	vf := fresh()
	x, y := vf.Fresh("x"), vf.Fresh("y")

	self := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(5)))
	other := domain.BaseDomain(Top(fam)).Assign(y, numeric.Const(numeric.FromInt64(5)))

	if self.Leq(other) {
		t.Error("self ≤ other should be false: other constrains y, which self leaves unconstrained")
	}
}

func TestWidenLeftOperandNotNormalizedFirst(t *testing.T) {
	vf := fresh()
	x := vf.Fresh("x")

	zero := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.Zero()))
	ten := domain.BaseDomain(Top(fam)).Assign(x, numeric.Const(numeric.FromInt64(10)))

	widened := zero.Widen(ten)
	if widened.IsBottom() {
		t.Fatal("widen should not collapse to bottom")
	}
	if !zero.Leq(widened) || !ten.Leq(widened) {
		t.Error("widen(zero, ten) should still be an upper bound of both inputs")
	}
}
