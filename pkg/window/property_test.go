package window_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

// TestWindowCountInvariant checks that a size-N tumbling window emits
// exactly floor(K/N) times after K events into one group, for arbitrary N
// and K.
func TestWindowCountInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a size-N tumbling window emits floor(K/N) times", prop.ForAll(
		func(n, k int) bool {
			w := window.NewTumblingWindow(window.Spec{Size: int64(n)})
			key := []types.Value{types.String("g")}
			emissions := 0
			for i := 0; i < k; i++ {
				snap, err := w.Observe("g", key, nil, 0, noopAccumulate)
				if err != nil {
					return false
				}
				if snap != nil {
					emissions++
				}
			}
			return emissions == k/n
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 500),
	))

	properties.TestingRun(t)
}

// TestGroupBoundInvariant checks that a window never holds more than
// max_groups concurrent groups (FIFO eviction order is checked by
// TestGroupBoundEvictsTheOldestGroupFirst).
func TestGroupBoundInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("no more than max_groups concurrent groups are held", prop.ForAll(
		func(maxGroups, distinctKeys int) bool {
			w := window.NewTumblingWindow(window.Spec{Size: 1000000, MaxGroups: int64(maxGroups)})
			for i := 0; i < distinctKeys; i++ {
				keyStr := string(rune('a' + i%26))
				key := []types.Value{types.String(keyStr)}
				if _, err := w.Observe(keyStr, key, nil, 0, noopAccumulate); err != nil {
					return false
				}
			}
			return w.Len() <= maxGroups
		},
		gen.IntRange(1, 10),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestGroupBoundEvictsTheOldestGroupFirst(t *testing.T) {
	w := window.NewTumblingWindow(window.Spec{Size: 1000000, MaxGroups: 2})
	for _, k := range []string{"a", "b", "c"} {
		key := []types.Value{types.String(k)}
		if _, err := w.Observe(k, key, nil, 0, noopAccumulate); err != nil {
			t.Fatalf("Observe(%q): %v", k, err)
		}
	}
	if w.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (max_groups bound)", w.Len())
	}
	// "a" was the first group created, so it must be the one evicted once
	// "c" forced the window over its bound; "b" and "c" stay live.
	countBefore := int64(-1)
	recordCount := func(g *window.Group) error { countBefore = g.Count; return nil }
	if _, err := w.Observe("b", []types.Value{types.String("b")}, nil, 0, recordCount); err != nil {
		t.Fatalf("Observe(b): %v", err)
	}
	if countBefore != 1 {
		t.Fatalf("group b held Count = %d before re-observing, want 1 (b still live, not evicted)", countBefore)
	}
	if w.Len() != 2 {
		t.Fatalf("Len() after re-observing a live group = %d, want 2 (no new group created)", w.Len())
	}
}

// TestTiltFrameConservation checks the two-stage cascade invariant: a
// cascade [size=a, size=b] emits floor(K/(a*b)) times at the outer stage
// for K events fed into one group.
func TestTiltFrameConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a two-stage cascade [a,b] emits floor(K/(a*b)) times", prop.ForAll(
		func(a, b, k int) bool {
			cascade := window.NewCascade([]window.Spec{{Size: int64(a)}, {Size: int64(b)}})
			key := []types.Value{types.String("g")}
			emissions := 0
			for i := 0; i < k; i++ {
				snap, err := cascade.Observe("g", key, nil, 0, noopAccumulate, noAggregators)
				if err != nil {
					return false
				}
				if snap != nil {
					emissions++
				}
			}
			return emissions == k/(a*b)
		},
		gen.IntRange(1, 6),
		gen.IntRange(1, 6),
		gen.IntRange(0, 300),
	))

	properties.TestingRun(t)
}

func noAggregators(n *ast.Node) (window.Aggregator, bool) { return nil, false }
