package window

import (
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/types"
)

// Spec parameterises one tumbling window (spec §4.E): size/interval decide
// when a group emits, max_groups bounds how many concurrent groups the
// window holds, emit_empty decides whether an interval window ticks with
// no events.
type Spec struct {
	Size      int64
	Interval  int64 // nanoseconds; 0 = unused
	MaxGroups int64
	EmitEmpty bool
}

// FromDefineWindow reads a Spec out of a parsed `define tumbling window`
// node (ast.DefineWindow).
func FromDefineWindow(n *ast.Node) Spec {
	return Spec{Size: n.Size, Interval: n.Interval, MaxGroups: n.MaxGroups, EmitEmpty: n.EmitEmpty}
}

// Group is one window's accumulated state for one group-by key: a running
// count (for size-based emission), the window's start timestamp (for
// interval-based emission) and one Aggregator state per aggr::* call site
// the select references, keyed by that call's AST node so multiple
// distinct aggr calls in the same select each get independent state.
type Group struct {
	Key        []types.Value
	KeyNode    *ast.Node
	Count      int64
	WindowStartNS int64
	AggrStates map[*ast.Node]State
}

func newGroup(key []types.Value, keyNode *ast.Node, startNS int64) *Group {
	return &Group{Key: key, KeyNode: keyNode, WindowStartNS: startNS, AggrStates: map[*ast.Node]State{}}
}

func (g *Group) clone() *Group {
	out := &Group{Key: append([]types.Value{}, g.Key...), KeyNode: g.KeyNode, Count: g.Count,
		WindowStartNS: g.WindowStartNS, AggrStates: make(map[*ast.Node]State, len(g.AggrStates))}
	for k, v := range g.AggrStates {
		out.AggrStates[k] = v
	}
	return out
}

func (g *Group) reset(startNS int64) {
	g.Count = 0
	g.WindowStartNS = startNS
	g.AggrStates = map[*ast.Node]State{}
}

// TumblingWindow is one stage of a window — either a standalone window or
// one link of a tilt-frame cascade (cascade.go owns chaining several of
// these together).
type TumblingWindow struct {
	spec   Spec
	groups map[string]*Group
	order  []string // insertion order, for FIFO max_groups eviction
}

func NewTumblingWindow(spec Spec) *TumblingWindow {
	if spec.MaxGroups <= 0 {
		spec.MaxGroups = 1000 // spec §4.E default, mirrors the parser's default
	}
	return &TumblingWindow{spec: spec, groups: map[string]*Group{}}
}

// group returns the live group for keyStr, creating it (evicting the
// oldest group first if the window is already at max_groups — spec §4.E:
// "cap concurrent groups; oldest evicted on overflow (FIFO)") if it does
// not already exist.
func (w *TumblingWindow) group(keyStr string, key []types.Value, keyNode *ast.Node, nowNS int64) *Group {
	if g, ok := w.groups[keyStr]; ok {
		return g
	}
	if int64(len(w.groups)) >= w.spec.MaxGroups && len(w.order) > 0 {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.groups, oldest)
	}
	g := newGroup(key, keyNode, nowNS)
	w.groups[keyStr] = g
	w.order = append(w.order, keyStr)
	return g
}

// shouldEmit reports whether g has met this window's emission condition:
// size events accumulated, or the interval elapsed since the window
// started (spec §4.E).
func (w *TumblingWindow) shouldEmit(g *Group, nowNS int64) bool {
	if w.spec.Size > 0 && g.Count >= w.spec.Size {
		return true
	}
	if w.spec.Interval > 0 && nowNS-g.WindowStartNS >= w.spec.Interval {
		return true
	}
	return false
}

// Observe accumulates one event into the group for key, returning a
// snapshot of the group at the moment it emits (nil if it does not emit
// yet). accumulate is invoked once per event before the emission check, so
// callers run every aggr::* Accumulate for this event through it.
//
// The returned snapshot is a clone taken before the live group resets, so
// pkg/query can still read Count/AggrStates for the select target's
// emission-time evaluation after Observe returns.
func (w *TumblingWindow) Observe(keyStr string, key []types.Value, keyNode *ast.Node, nowNS int64, accumulate func(*Group) error) (*Group, error) {
	g := w.group(keyStr, key, keyNode, nowNS)
	if err := accumulate(g); err != nil {
		return nil, err
	}
	g.Count++
	if !w.shouldEmit(g, nowNS) {
		return nil, nil
	}
	snapshot := g.clone()
	g.reset(nowNS)
	return snapshot, nil
}

// Len reports the number of concurrent groups currently held (for the
// group-bound invariant: never more than max_groups).
func (w *TumblingWindow) Len() int { return len(w.groups) }

// Tick drives the window's ungrouped key (keyStr "") on the runtime's own
// clock instead of an incoming event, the `emit_empty` behaviour spec §4.E
// names: an interval window with no events to accumulate still ticks once
// its interval elapses, emitting a snapshot of whatever zero-or-more
// events it did see. Returns nil when emit_empty is off, the window has no
// interval, or the interval has not elapsed since the ungrouped group's
// start. A window that has not yet seen a single event starts that group
// at the time of its first Tick, so the first Tick never fires.
func (w *TumblingWindow) Tick(nowNS int64) *Group {
	if !w.spec.EmitEmpty || w.spec.Interval <= 0 {
		return nil
	}
	g, ok := w.groups[""]
	if !ok {
		g = w.group("", nil, nil, nowNS)
	}
	if nowNS-g.WindowStartNS < w.spec.Interval {
		return nil
	}
	snapshot := g.clone()
	g.reset(nowNS)
	return snapshot
}
