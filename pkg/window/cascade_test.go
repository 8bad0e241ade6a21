package window_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

func TestCascadeEmitsOnlyAtOutermostStage(t *testing.T) {
	reg := window.NewRegistry()
	sumAgg, _ := reg.Lookup("stats", "sum")
	callSite := &ast.Node{Type: ast.FnCall, StrVal: "sum"}

	c := window.NewCascade([]window.Spec{{Size: 2}, {Size: 2}})
	lookup := func(n *ast.Node) (window.Aggregator, bool) { return sumAgg, true }

	accumulate := func(g *window.Group) error {
		s, err := sumAgg.Accumulate(stateFor(g, callSite, sumAgg), types.Int(1))
		if err != nil {
			return err
		}
		g.AggrStates[callSite] = s
		return nil
	}

	key := []types.Value{types.String("k")}
	var lastSnapshot *window.Group
	for i := 0; i < 4; i++ {
		snap, err := c.Observe("k", key, nil, 0, accumulate, lookup)
		if err != nil {
			t.Fatalf("Observe (event %d): %v", i, err)
		}
		if i < 3 {
			if snap != nil {
				t.Fatalf("unexpected emission at event %d (outer stage needs 4 raw events)", i)
			}
			continue
		}
		lastSnapshot = snap
	}
	if lastSnapshot == nil {
		t.Fatal("expected the outer stage to emit after 4 raw events (2 inner emissions of 2 each)")
	}
	got := sumAgg.Emit(lastSnapshot.AggrStates[callSite])
	if f, _ := got.AsFloat(); f != 4 {
		t.Fatalf("cascaded sum = %v, want 4 (one per raw event)", f)
	}
}

func stateFor(g *window.Group, node *ast.Node, agg window.Aggregator) window.State {
	if s, ok := g.AggrStates[node]; ok {
		return s
	}
	return agg.Init()
}

func TestCascadeStageGroupCounts(t *testing.T) {
	c := window.NewCascade([]window.Spec{{Size: 10}, {Size: 10}})
	counts := c.StageGroupCounts()
	if len(counts) != 2 {
		t.Fatalf("StageGroupCounts() len = %d, want 2", len(counts))
	}
	for i, n := range counts {
		if n != 0 {
			t.Errorf("stage %d count = %d, want 0 before any events", i, n)
		}
	}
}

func TestCascadeTickFiresStageZeroAndMergesIntoLaterStages(t *testing.T) {
	c := window.NewCascade([]window.Spec{{Interval: 1000, EmitEmpty: true}, {Size: 1}})
	lookup := func(*ast.Node) (window.Aggregator, bool) { return nil, false }

	if snap, err := c.Tick(500, lookup); err != nil || snap != nil {
		t.Fatalf("Tick(500) = %v, %v, want nil: stage 0's interval has not elapsed", snap, err)
	}
	snap, err := c.Tick(1500, lookup)
	if err != nil {
		t.Fatalf("Tick(1500): %v", err)
	}
	if snap == nil {
		t.Fatal("expected stage 0's tick to fire and merge into stage 1, whose size is 1")
	}
}

func TestCascadeNoEmissionReturnsNilWithoutError(t *testing.T) {
	c := window.NewCascade([]window.Spec{{Size: 5}, {Size: 5}})
	noop := func(*window.Group) error { return nil }
	lookup := func(*ast.Node) (window.Aggregator, bool) { return nil, false }
	snap, err := c.Observe("k", []types.Value{types.String("k")}, nil, 0, noop, lookup)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if snap != nil {
		t.Fatal("expected no emission from an under-threshold cascade")
	}
}
