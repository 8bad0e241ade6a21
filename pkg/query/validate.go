package query

import (
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// validate enforces spec §4.F's compile-time checks: every referenced
// operator/port exists, the graph is acyclic (DFS, per kdag's own
// validation approach), and — structurally guaranteed by DAG.addNode
// already rejecting a second registration under the same name — no
// duplicate operator names share a scope.
func validate(d *DAG, span types.Span) error {
	for _, e := range d.Edges {
		if _, ok := d.Nodes[e.From.Node]; !ok {
			return diag.Newf(diag.Compile, span, "select/create references unknown operator %q", e.From.Node)
		}
		if _, ok := d.Nodes[e.To.Node]; !ok {
			return diag.Newf(diag.Compile, span, "select/create references unknown operator %q", e.To.Node)
		}
	}
	if cyc := findCycle(d); cyc != "" {
		return diag.Newf(diag.Compile, span, "operator graph contains a cycle through %q", cyc)
	}
	return nil
}

// findCycle runs a three-colour DFS (white/grey/black) over the node
// graph, returning the name of a node on a detected cycle, or "" if the
// graph is acyclic.
func findCycle(d *DAG) string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := map[string]int{}
	var cycleAt string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = grey
		for _, e := range d.outEdges[name] {
			switch color[e.To.Node] {
			case grey:
				cycleAt = e.To.Node
				return true
			case white:
				if visit(e.To.Node) {
					return true
				}
			}
		}
		color[name] = black
		return false
	}

	for name := range d.Nodes {
		if color[name] == white {
			if visit(name) {
				return cycleAt
			}
		}
	}
	return ""
}
