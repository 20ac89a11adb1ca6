package wto

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"
)

// WriteDOT renders w to out in the given Graphviz format ("svg", "png",
// "dot", ...): one node per vertex, one subgraph cluster per cycle, nested
// the way analysis/cfg/visualize.go clusters goroutine/select structure in
// the wider codebase's CFG visualizer.
func WriteDOT(w WTO, format string, out io.Writer) error {
	g := graphviz.New()
	defer g.Close()

	graph, err := graphviz.ParseBytes([]byte(dotSource(w)))
	if err != nil {
		return fmt.Errorf("wto: parsing generated dot source: %w", err)
	}
	defer graph.Close()

	return g.Render(graph, graphviz.Format(format), out)
}

func dotSource(w WTO) string {
	var b strings.Builder
	b.WriteString("digraph WTO {\n  node [shape=box];\n")
	cluster := 0
	writeComponents(&b, w.Components, &cluster)
	b.WriteString("}\n")
	return b.String()
}

func writeComponents(b *strings.Builder, comps []Component, cluster *int) {
	for _, c := range comps {
		switch t := c.(type) {
		case Vertex:
			fmt.Fprintf(b, "  %q;\n", t.Node.String())
		case Cycle:
			*cluster++
			fmt.Fprintf(b, "  subgraph cluster_%d {\n", *cluster)
			fmt.Fprintf(b, "    label=%q;\n", "loop@"+t.Head.String())
			fmt.Fprintf(b, "    %q [peripheries=2];\n", t.Head.String())
			writeComponents(b, t.Body, cluster)
			b.WriteString("  }\n")
		}
	}
}
