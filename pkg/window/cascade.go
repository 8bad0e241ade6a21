package window

import (
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/types"
)

// Cascade implements tilt frames (spec §4.E): `from in[w1, w2, w3]` chains
// several TumblingWindow stages left to right. An event always feeds
// stage 0; when a stage emits, its aggregated state merges into the next
// stage's group for the same key, which counts as exactly one event
// toward that next stage's own size/interval condition. This reuses
// TumblingWindow.Observe unchanged at every stage — only the first
// stage's per-event accumulate function differs from the later stages',
// which fold in a whole prior-stage emission instead of one raw event.
type Cascade struct {
	stages []*TumblingWindow
}

func NewCascade(specs []Spec) *Cascade {
	stages := make([]*TumblingWindow, len(specs))
	for i, s := range specs {
		stages[i] = NewTumblingWindow(s)
	}
	return &Cascade{stages: stages}
}

// AggregatorLookup resolves an aggr::* call's AST node to the Aggregator
// implementation that produced its state, needed to merge one stage's
// emitted state into the next.
type AggregatorLookup func(*ast.Node) (Aggregator, bool)

// Observe feeds one event through the cascade, merging a stage's emission
// into the next stage synchronously until either no stage fires (nil,
// nil) or the outermost stage fires (its snapshot is returned — spec
// §4.E: "downstream consumers... see one event per emission at the
// outermost window that fires").
func (c *Cascade) Observe(keyStr string, key []types.Value, keyNode *ast.Node, nowNS int64,
	accumulate func(*Group) error, lookup AggregatorLookup) (*Group, error) {

	snapshot, err := c.stages[0].Observe(keyStr, key, keyNode, nowNS, accumulate)
	if err != nil || snapshot == nil {
		return nil, err
	}
	for i := 1; i < len(c.stages); i++ {
		merged, err := c.stages[i].Observe(keyStr, key, keyNode, nowNS, mergeInto(snapshot, lookup))
		if err != nil {
			return nil, err
		}
		if merged == nil {
			return nil, nil
		}
		snapshot = merged
	}
	return snapshot, nil
}

// Tick drives the cascade's ungrouped key from the runtime's clock instead
// of an incoming event, for stage 0's `emit_empty` interval windows (spec
// §4.E). A stage-0 tick that fires merges into stage 1 exactly like an
// event-driven Observe would; later stages never tick on their own, since
// nothing downstream of a firing stage 0 needs a separate clock.
func (c *Cascade) Tick(nowNS int64, lookup AggregatorLookup) (*Group, error) {
	snapshot := c.stages[0].Tick(nowNS)
	if snapshot == nil {
		return nil, nil
	}
	for i := 1; i < len(c.stages); i++ {
		merged, err := c.stages[i].Observe("", nil, nil, nowNS, mergeInto(snapshot, lookup))
		if err != nil {
			return nil, err
		}
		if merged == nil {
			return nil, nil
		}
		snapshot = merged
	}
	return snapshot, nil
}

func mergeInto(src *Group, lookup AggregatorLookup) func(*Group) error {
	return func(dst *Group) error {
		for node, state := range src.AggrStates {
			agg, ok := lookup(node)
			if !ok {
				continue
			}
			if existing, has := dst.AggrStates[node]; has {
				dst.AggrStates[node] = agg.Merge(existing, state)
			} else {
				dst.AggrStates[node] = agg.Merge(agg.Init(), state)
			}
		}
		return nil
	}
}

// StageGroupCounts returns every stage's live group count, for the group-bound
// invariant (§8: "no window holds more than max_groups concurrent
// groups") checked per stage.
func (c *Cascade) StageGroupCounts() []int {
	out := make([]int, len(c.stages))
	for i, s := range c.stages {
		out[i] = s.Len()
	}
	return out
}
