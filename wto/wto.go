// Package wto builds Bourdoncle's Weak Topological Ordering over a CFG: a
// list whose elements are either singleton vertices or nested cycles, used
// by the fixpoint iterator to drive its ascending/descending traversal.
package wto

import (
	"github.com/cs-au-dk/absint/cfg"
	"github.com/cs-au-dk/absint/graphutil"
)

// Component is either a Vertex or a Cycle.
type Component interface{ component() }

// Vertex is a single CFG node with no self-loop.
type Vertex struct{ Node cfg.NodeName }

// Cycle nests every node discovered to be part of the same strongly
// connected component as Head. Body is itself a WTO of the component with
// Head removed, so nested loops appear as nested Cycles.
type Cycle struct {
	Head cfg.NodeName
	Body []Component
}

func (Vertex) component() {}
func (Cycle) component()  {}

// Visitor receives the two callbacks the ordering's contract promises.
type Visitor interface {
	VisitVertex(n cfg.NodeName)
	VisitCycle(head cfg.NodeName, body []Component)
}

// Walk visits every top-level component once, in order. It does not
// recurse into a Cycle's Body — callers that need the full nested
// traversal call Walk again on the Cycle's Body, the way the fixpoint
// iterator's own recursive per-cycle visit does.
func Walk(components []Component, v Visitor) {
	for _, c := range components {
		switch t := c.(type) {
		case Vertex:
			v.VisitVertex(t.Node)
		case Cycle:
			v.VisitCycle(t.Head, t.Body)
		}
	}
}

// WTO is the ordering plus a precomputed nesting index.
type WTO struct {
	Components []Component

	nesting map[cfg.NodeName][]cfg.NodeName
}

// Nesting returns the sequence of enclosing cycle heads for n, deepest
// last. A node that is itself a cycle head is not included in its own
// nesting sequence.
func (w WTO) Nesting(n cfg.NodeName) []cfg.NodeName {
	return append([]cfg.NodeName(nil), w.nesting[n]...)
}

// Build computes the WTO of every node reachable from g.Entry() following
// NextNodes edges.
func Build(g cfg.CFG) WTO {
	reachable := collectReachable(g)
	edges := func(n cfg.NodeName) []cfg.NodeName { return g.NextNodes(n) }
	comps := buildComponents(reachable, edges)

	w := WTO{Components: comps, nesting: map[cfg.NodeName][]cfg.NodeName{}}
	w.index(comps, nil)
	return w
}

func (w WTO) index(comps []Component, stack []cfg.NodeName) {
	for _, c := range comps {
		switch t := c.(type) {
		case Vertex:
			w.nesting[t.Node] = append([]cfg.NodeName(nil), stack...)
		case Cycle:
			w.nesting[t.Head] = append([]cfg.NodeName(nil), stack...)
			w.index(t.Body, append(append([]cfg.NodeName(nil), stack...), t.Head))
		}
	}
}

func collectReachable(g cfg.CFG) []cfg.NodeName {
	seen := map[cfg.NodeName]bool{}
	var order []cfg.NodeName
	var visit func(cfg.NodeName)
	visit = func(n cfg.NodeName) {
		if seen[n] {
			return
		}
		seen[n] = true
		order = append(order, n)
		for _, s := range g.NextNodes(n) {
			visit(s)
		}
	}
	visit(g.Entry())
	return order
}

// buildComponents decomposes nodes into a WTO. Tarjan's SCC pass finishes
// components in reverse topological order (component i only reaches
// components j <= i), so components are walked back-to-front to recover
// forward flow order. Every finished component's root — the node the
// recursive visit started at — is exactly Bourdoncle's cycle head: it is
// the sole node in the component discovered before any other of its
// members, which means every edge into the component from outside lands
// on it.
func buildComponents(nodes []cfg.NodeName, edges graphutil.EdgesOf[cfg.NodeName]) []Component {
	scc := graphutil.TarjanSCC(nodes, edges)

	var out []Component
	for i := len(scc.Components) - 1; i >= 0; i-- {
		comp := scc.Components[i]
		head := comp[len(comp)-1]

		if len(comp) == 1 && !selfLoop(head, edges) {
			out = append(out, Vertex{Node: head})
			continue
		}

		inComp := make(map[cfg.NodeName]bool, len(comp))
		for _, n := range comp {
			inComp[n] = true
		}
		// comp lists its members in reverse discovery order with head last;
		// rest is rebuilt in discovery order so the recursive pass starts
		// from head's successors and a nested cycle's root is its entry.
		rest := make([]cfg.NodeName, 0, len(comp)-1)
		for k := len(comp) - 2; k >= 0; k-- {
			rest = append(rest, comp[k])
		}
		restricted := func(n cfg.NodeName) []cfg.NodeName {
			var r []cfg.NodeName
			for _, s := range edges(n) {
				if s != head && inComp[s] {
					r = append(r, s)
				}
			}
			return r
		}
		out = append(out, Cycle{Head: head, Body: buildComponents(rest, restricted)})
	}
	return out
}

func selfLoop(n cfg.NodeName, edges graphutil.EdgesOf[cfg.NodeName]) bool {
	for _, s := range edges(n) {
		if s == n {
			return true
		}
	}
	return false
}
