// Package cfg declares the control-flow graph contract the fixpoint
// iterator walks, plus a minimal concrete graph builder for tests and the
// demo CLI. Construction from a real frontend (an SSA form, a bytecode
// stream, …) is out of scope here: CFG is a pure node/edge contract that
// any such frontend can satisfy independently.
package cfg

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/absint/numeric"
)

// NodeName identifies one CFG node. It is opaque and totally ordered so
// that node sets can be iterated deterministically, matching the ordering
// guarantee the iterator's traversal owes the rest of the pipeline.
type NodeName struct {
	id int
}

func (n NodeName) String() string { return fmt.Sprintf("n%d", n.id) }

func (n NodeName) Less(o NodeName) bool { return n.id < o.id }

// Thresholds is the jump set passed to a base domain's
// WidenWithThresholds. An empty Thresholds disables threshold widening for
// that vertex.
type Thresholds []numeric.Number

// CFG is the contract the fixpoint iterator consumes: entry point lookup,
// predecessor/successor edges, and a per-call-site widening jump set.
type CFG interface {
	Entry() NodeName
	PrevNodes(n NodeName) []NodeName
	NextNodes(n NodeName) []NodeName
	// InitializeThresholdsForWidening returns the jump set to use when
	// threshold-widening the head of a cycle; the fixpoint iterator passes
	// the number of nodes in that cycle as size. Implementations that don't
	// want threshold widening return nil.
	InitializeThresholdsForWidening(size int) Thresholds
}

// Graph is a minimal concrete CFG: nodes are added via AddNode/AddEdge, in
// arbitrary order, and edges are stored both ways so PrevNodes/NextNodes
// are O(1) lookups. It carries a fixed Thresholds jump set for every node,
// set once at construction time, mirroring how a real frontend would
// derive one jump set per function from its constant pool.
type Graph struct {
	entry   NodeName
	nextID  int
	nodes   map[NodeName]struct{}
	succs   map[NodeName][]NodeName
	preds   map[NodeName][]NodeName
	jumpSet Thresholds
}

// NewGraph creates an empty graph whose jump set (used for every vertex,
// if non-nil) is jumpSet.
func NewGraph(jumpSet Thresholds) *Graph {
	return &Graph{
		nodes:   map[NodeName]struct{}{},
		succs:   map[NodeName][]NodeName{},
		preds:   map[NodeName][]NodeName{},
		jumpSet: jumpSet,
	}
}

// AddNode allocates and returns a fresh node.
func (g *Graph) AddNode() NodeName {
	g.nextID++
	n := NodeName{id: g.nextID}
	g.nodes[n] = struct{}{}
	return n
}

// SetEntry designates n as the graph's entry point.
func (g *Graph) SetEntry(n NodeName) { g.entry = n }

// AddEdge records a from->to control-flow edge.
func (g *Graph) AddEdge(from, to NodeName) {
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

func (g *Graph) Entry() NodeName { return g.entry }

func (g *Graph) PrevNodes(n NodeName) []NodeName { return sortedCopy(g.preds[n]) }

func (g *Graph) NextNodes(n NodeName) []NodeName { return sortedCopy(g.succs[n]) }

func (g *Graph) InitializeThresholdsForWidening(int) Thresholds { return g.jumpSet }

// Nodes returns every node in the graph, in a stable order.
func (g *Graph) Nodes() []NodeName {
	out := make([]NodeName, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func sortedCopy(ns []NodeName) []NodeName {
	out := append([]NodeName(nil), ns...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
