// Command absint runs the fixpoint iterator over a small built-in loop CFG
// and prints the invariant computed at every node, as a smoke test and
// worked example of wiring cfg, one of the base/combinator domains, and
// fixpoint together.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/fatih/color"

	"github.com/cs-au-dk/absint/cfg"
	"github.com/cs-au-dk/absint/diag"
	"github.com/cs-au-dk/absint/domain"
	"github.com/cs-au-dk/absint/fixpoint"
	"github.com/cs-au-dk/absint/interval"
	"github.com/cs-au-dk/absint/numeric"
	"github.com/cs-au-dk/absint/powerset"
	"github.com/cs-au-dk/absint/termdomain"
)

var (
	domainFlag  = flag.String("domain", "interval", "base domain: interval, term, or powerset")
	widening    = flag.Uint("widening-threshold", 1, "ascending join rounds before widening kicks in")
	narrowing   = flag.Uint("narrowing-iterations", 3, "descending refine rounds before giving up")
	maxDisjunct = flag.Int("max-disjuncts", 4, "disjunct cap when -domain=powerset")
	threshold   = flag.Int64("threshold", 0, "an extra widening threshold value; 0 disables it")
	noColor     = flag.Bool("no-color", false, "disable colorized diagnostic output")
)

// buildLoopCFG assembles entry -> head -(guard)-> body -> head, and
// head -(exit guard)-> exit: a single counted loop bounded by a constant.
func buildLoopCFG(jumpSet cfg.Thresholds) (*cfg.Graph, map[string]cfg.NodeName) {
	g := cfg.NewGraph(jumpSet)
	nodes := map[string]cfg.NodeName{
		"entry":      g.AddNode(),
		"head":       g.AddNode(),
		"guard":      g.AddNode(),
		"body":       g.AddNode(),
		"exit_guard": g.AddNode(),
		"exit":       g.AddNode(),
	}
	g.SetEntry(nodes["entry"])
	g.AddEdge(nodes["entry"], nodes["head"])
	g.AddEdge(nodes["head"], nodes["guard"])
	g.AddEdge(nodes["guard"], nodes["body"])
	g.AddEdge(nodes["body"], nodes["head"])
	g.AddEdge(nodes["head"], nodes["exit_guard"])
	g.AddEdge(nodes["exit_guard"], nodes["exit"])
	return g, nodes
}

// loopAnalyzer runs `i := 0; while (i <= bound) { i := i + 1 }` against
// whatever base domain it is instantiated over.
type loopAnalyzer struct {
	i     numeric.VariableName
	bound numeric.Number
	nodes map[string]cfg.NodeName
}

func (a loopAnalyzer) Transfer(n cfg.NodeName, pre domain.BaseDomain) domain.BaseDomain {
	switch n {
	case a.nodes["entry"]:
		return pre.Assign(a.i, numeric.Const(numeric.Zero()))
	case a.nodes["guard"]:
		c := numeric.NewLinearConstraint(numeric.Var(a.i).Sub(numeric.Const(a.bound)), numeric.KindLEQ)
		return pre.AddConstraint(c)
	case a.nodes["exit_guard"]:
		c := numeric.NewLinearConstraint(numeric.Const(a.bound.Add(numeric.One())).Sub(numeric.Var(a.i)), numeric.KindLEQ)
		return pre.AddConstraint(c)
	case a.nodes["body"]:
		return pre.ApplyConst(numeric.OpAdd, a.i, a.i, numeric.One())
	default:
		return pre
	}
}

type printReporter struct {
	names map[cfg.NodeName]string
	pre   map[cfg.NodeName]domain.BaseDomain
	post  map[cfg.NodeName]domain.BaseDomain
}

func (r *printReporter) ProcessPre(n cfg.NodeName, v domain.BaseDomain)  { r.pre[n] = v }
func (r *printReporter) ProcessPost(n cfg.NodeName, v domain.BaseDomain) { r.post[n] = v }

func (r *printReporter) print() {
	names := make([]string, 0, len(r.names))
	byName := map[string]cfg.NodeName{}
	for n, name := range r.names {
		names = append(names, name)
		byName[name] = n
	}
	sort.Strings(names)
	for _, name := range names {
		n := byName[name]
		fmt.Printf("%-10s pre  %s\n", name, r.pre[n])
		fmt.Printf("%-10s post %s\n", name, r.post[n])
	}
}

func pickFamily(sink diag.Sink) domain.Family {
	switch *domainFlag {
	case "interval":
		return interval.Family{}
	case "term":
		return termdomain.Family{Base: interval.Family{}, Sink: sink}
	case "powerset":
		return powerset.Family{
			Base: termdomain.Family{Base: interval.Family{}, Sink: sink},
			Cfg:  powerset.Config{MaxDisjuncts: *maxDisjunct},
			Sink: sink,
		}
	default:
		log.Fatalf("unknown -domain %q (want interval, term, or powerset)", *domainFlag)
		return nil
	}
}

func main() {
	flag.Parse()
	color.NoColor = color.NoColor || *noColor
	sink := diag.LogSink{NoColorize: *noColor}

	var jumpSet cfg.Thresholds
	if *threshold != 0 {
		jumpSet = cfg.Thresholds{numeric.FromInt64(*threshold)}
	}
	g, nodes := buildLoopCFG(jumpSet)

	vf := numeric.NewVarFactory()
	i := vf.Fresh("i")

	analyzer := loopAnalyzer{i: i, bound: numeric.FromInt64(10), nodes: nodes}
	family := pickFamily(sink)

	it := fixpoint.NewIterator(g, family, analyzer, family.Top(), fixpoint.Config{
		WideningThreshold:   *widening,
		NarrowingIterations: *narrowing,
	}, sink)

	names := map[cfg.NodeName]string{}
	for name, n := range nodes {
		names[n] = name
	}
	rep := &printReporter{names: names, pre: map[cfg.NodeName]domain.BaseDomain{}, post: map[cfg.NodeName]domain.BaseDomain{}}
	it.Run(rep)
	rep.print()

	if v, ok := it.Post(nodes["guard"]); ok {
		fmt.Println()
		fmt.Printf("value of %s flowing into the loop body: %s\n", i, v.Get(i))
	}
}
