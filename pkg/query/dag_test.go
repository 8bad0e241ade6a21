package query

import (
	"strings"
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
)

func TestPortStringFormatsNodeSlashPort(t *testing.T) {
	p := Port{Node: "in", Port: "out"}
	if got, want := p.String(), "in/out"; got != want {
		t.Fatalf("Port.String() = %q, want %q", got, want)
	}
}

func TestAddNodeRejectsADuplicateName(t *testing.T) {
	d := newDAG()
	if err := d.addNode(&Node{Name: "classify", Kind: KindSelect}); err != nil {
		t.Fatalf("first addNode: %v", err)
	}
	err := d.addNode(&Node{Name: "classify", Kind: KindSelect})
	if err == nil {
		t.Fatal("expected an error registering a second operator under the same name")
	}
	if !strings.Contains(err.Error(), "classify") {
		t.Fatalf("error %v does not name the duplicate operator", err)
	}
}

func TestOutEdgesFiltersByPortAndLeavesOtherNodesAlone(t *testing.T) {
	d := newDAG()
	d.addBuiltinStream("in")
	d.addBuiltinStream("out")
	d.addBuiltinStream("err")
	d.connect(Port{Node: "in", Port: "out"}, Port{Node: "classify", Port: "in"})
	d.connect(Port{Node: "classify", Port: "out"}, Port{Node: "out", Port: "in"})
	d.connect(Port{Node: "classify", Port: "error"}, Port{Node: "err", Port: "in"})

	all := d.OutEdges("classify", "")
	if len(all) != 2 {
		t.Fatalf("OutEdges(classify, \"\") = %v, want 2 edges", all)
	}
	onlyOut := d.OutEdges("classify", "out")
	if len(onlyOut) != 1 || onlyOut[0].To.Node != "out" {
		t.Fatalf("OutEdges(classify, out) = %v, want exactly the edge to \"out\"", onlyOut)
	}
	if edges := d.OutEdges("in", ""); len(edges) != 1 || edges[0].To.Node != "classify" {
		t.Fatalf("OutEdges(in, \"\") = %v, want exactly the edge to classify", edges)
	}
}

func TestTopoOrderRespectsEveryEdgeDirection(t *testing.T) {
	d := newDAG()
	for _, name := range []string{"in", "a", "b", "out"} {
		d.addBuiltinStream(name)
	}
	d.connect(Port{Node: "in", Port: "out"}, Port{Node: "a", Port: "in"})
	d.connect(Port{Node: "a", Port: "out"}, Port{Node: "b", Port: "in"})
	d.connect(Port{Node: "b", Port: "out"}, Port{Node: "out", Port: "in"})

	order := d.TopoOrder()
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	if len(order) != 4 {
		t.Fatalf("TopoOrder() = %v, want all 4 nodes", order)
	}
	if !(pos["in"] < pos["a"] && pos["a"] < pos["b"] && pos["b"] < pos["out"]) {
		t.Fatalf("TopoOrder() = %v, want in < a < b < out", order)
	}
}

func TestValidateRejectsAnEdgeToAnUnknownOperator(t *testing.T) {
	d := newDAG()
	d.addBuiltinStream("in")
	d.connect(Port{Node: "in", Port: "out"}, Port{Node: "missing", Port: "in"})

	err := validate(d, types.Span{})
	if err == nil {
		t.Fatal("expected an error for an edge into an unregistered operator")
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("error %v does not name the unknown operator", err)
	}
}

func TestFindCycleDetectsASelfLoop(t *testing.T) {
	d := newDAG()
	d.addBuiltinStream("a")
	d.connect(Port{Node: "a", Port: "out"}, Port{Node: "a", Port: "in"})

	if cyc := findCycle(d); cyc == "" {
		t.Fatal("expected findCycle to report a cycle through \"a\"")
	}
}

func TestFindCycleDetectsAThreeNodeCycle(t *testing.T) {
	d := newDAG()
	for _, name := range []string{"a", "b", "c"} {
		d.addBuiltinStream(name)
	}
	d.connect(Port{Node: "a", Port: "out"}, Port{Node: "b", Port: "in"})
	d.connect(Port{Node: "b", Port: "out"}, Port{Node: "c", Port: "in"})
	d.connect(Port{Node: "c", Port: "out"}, Port{Node: "a", Port: "in"})

	if cyc := findCycle(d); cyc == "" {
		t.Fatal("expected findCycle to report a cycle across a, b, c")
	}
}

func TestFindCycleAcceptsADiamondWithNoCycle(t *testing.T) {
	d := newDAG()
	for _, name := range []string{"in", "a", "b", "out"} {
		d.addBuiltinStream(name)
	}
	d.connect(Port{Node: "in", Port: "out"}, Port{Node: "a", Port: "in"})
	d.connect(Port{Node: "in", Port: "out"}, Port{Node: "b", Port: "in"})
	d.connect(Port{Node: "a", Port: "out"}, Port{Node: "out", Port: "in"})
	d.connect(Port{Node: "b", Port: "out"}, Port{Node: "out", Port: "in"})

	if cyc := findCycle(d); cyc != "" {
		t.Fatalf("findCycle(diamond) = %q, want no cycle", cyc)
	}
}
