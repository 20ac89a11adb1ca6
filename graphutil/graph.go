// Package graphutil provides the small amount of generic graph machinery
// the WTO builder needs: an edge-relation view over an arbitrary node type,
// and Tarjan's strongly-connected-components algorithm over it.
package graphutil

import "github.com/spakin/disjoint"

// EdgesOf is the only thing a caller must supply: the successor relation
// for one node.
type EdgesOf[T comparable] func(node T) []T

// SCC is a flat strongly-connected-component decomposition of the subgraph
// reachable from a set of start nodes. Components are listed in the order
// Tarjan's algorithm completes them, which means a node in Components[i]
// only has edges to nodes in Components[j] for j <= i — the decomposition
// is already in reverse topological order of the condensation.
type SCC[T comparable] struct {
	Components [][]T

	index map[T]int
	// sets groups every node of one component into a single disjoint-set
	// partition, giving O(nearly 1) same-component queries.
	sets map[T]*disjoint.Element
}

// ComponentOf returns the index of the component containing node, or -1 if
// node was never visited.
func (s SCC[T]) ComponentOf(node T) int {
	if i, ok := s.index[node]; ok {
		return i
	}
	return -1
}

// SameComponent reports whether a and b were placed in the same strongly
// connected component, via the union-find partition built alongside the
// Tarjan pass.
func (s SCC[T]) SameComponent(a, b T) bool {
	sa, oka := s.sets[a]
	sb, okb := s.sets[b]
	if !oka || !okb {
		return false
	}
	return sa.Find() == sb.Find()
}

// TarjanSCC computes the strongly connected components reachable from
// start, using the standard low-link/stack formulation. Once a component
// is popped off the stack, every member is unioned into one disjoint-set
// partition, which SameComponent queries. ComponentOf answers from a
// separate node-to-component-index map built from the finished component
// list.
func TarjanSCC[T comparable](start []T, edges EdgesOf[T]) SCC[T] {
	low := map[T]int{}
	onStack := map[T]bool{}
	index := map[T]int{}
	sets := map[T]*disjoint.Element{}
	var stack []T
	var components [][]T
	counter := 0

	var visit func(T)
	visit = func(v T) {
		counter++
		low[v] = counter
		index[v] = counter
		onStack[v] = true
		stack = append(stack, v)
		sets[v] = disjoint.NewElement()

		for _, w := range edges(v) {
			if _, seen := index[w]; !seen {
				visit(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var comp []T
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			for _, w := range comp {
				disjoint.Union(sets[v], sets[w])
			}
			components = append(components, comp)
		}
	}

	for _, v := range start {
		if _, seen := index[v]; !seen {
			visit(v)
		}
	}

	compIndex := map[T]int{}
	for i, comp := range components {
		for _, v := range comp {
			compIndex[v] = i
		}
	}

	return SCC[T]{Components: components, index: compIndex, sets: sets}
}
