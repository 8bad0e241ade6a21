// Package query compiles a parsed trickle program into a validated DAG of
// operator nodes (spec §4.F), the structure pkg/pipeline walks per event.
//
// The DAG shape follows the Builder/Graph/Node split documented by
// _examples/other_examples/birdayz-kstreams__doc.go (kdag): build-time
// construction separated from a validated, immutable runtime graph, cycle
// detection by DFS, orphan/sink checks at Build time. kdag itself is only a
// doc-comment stub in the retrieved pack (no source tree to import), so
// this is a natively written DAG sized to trickle's node/port model rather
// than a literal port of kdag's generic, type-erased registration API.
package query

import (
	"fmt"

	"github.com/tremor-rs/tremor/pkg/types"
)

// Kind tags which alternative of Node is populated.
type Kind string

const (
	KindStream   Kind = "stream"   // in/out/err or a `create stream` instance
	KindScript   Kind = "script"   // a `create script` instance
	KindSelect   Kind = "select"   // a `select ... from ... into ...` statement
	KindOperator Kind = "operator" // a `create operator` instance (generic config)
)

// Port identifies one (node, port) endpoint of an edge.
type Port struct {
	Node string
	Port string
}

func (p Port) String() string { return p.Node + "/" + p.Port }

// Node is one operator instance in the compiled graph.
type Node struct {
	Name string
	Kind Kind
	Span types.Span

	Script *ScriptOperator
	Select *SelectOperator

	OperatorKind string // KindOperator: the `from KIND` name
	OperatorArgs map[string]types.Value
}

// Edge is one directed connection between two node ports.
type Edge struct {
	From Port
	To   Port
}

// DAG is the compiled, validated graph pkg/pipeline executes.
type DAG struct {
	Nodes map[string]*Node
	Edges []Edge

	outEdges map[string][]Edge // by source node name, for topological dispatch
}

func newDAG() *DAG {
	return &DAG{Nodes: map[string]*Node{}, outEdges: map[string][]Edge{}}
}

func (d *DAG) addNode(n *Node) error {
	if _, exists := d.Nodes[n.Name]; exists {
		return fmt.Errorf("duplicate operator name %q in this scope", n.Name)
	}
	d.Nodes[n.Name] = n
	return nil
}

func (d *DAG) addBuiltinStream(name string) {
	d.Nodes[name] = &Node{Name: name, Kind: KindStream}
}

func (d *DAG) connect(from, to Port) {
	e := Edge{From: from, To: to}
	d.Edges = append(d.Edges, e)
	d.outEdges[from.Node] = append(d.outEdges[from.Node], e)
}

// OutEdges returns every edge leaving node/port ("" port means any port).
func (d *DAG) OutEdges(node, port string) []Edge {
	var out []Edge
	for _, e := range d.outEdges[node] {
		if port == "" || e.From.Port == port {
			out = append(out, e)
		}
	}
	return out
}

// TopoOrder returns node names in topological order (Kahn's algorithm),
// the traversal order pkg/pipeline dispatches an ingress event through
// (spec §4.G: "depth-first traversal in topological order"). Validate
// must have already rejected cycles; TopoOrder assumes an acyclic graph.
func (d *DAG) TopoOrder() []string {
	indeg := map[string]int{}
	for name := range d.Nodes {
		indeg[name] = 0
	}
	for _, e := range d.Edges {
		indeg[e.To.Node]++
	}
	var queue []string
	for name, deg := range indeg {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, e := range d.outEdges[n] {
			indeg[e.To.Node]--
			if indeg[e.To.Node] == 0 {
				queue = append(queue, e.To.Node)
			}
		}
	}
	return order
}
