package window

import (
	"fmt"
	"math"

	"github.com/tremor-rs/tremor/pkg/types"
)

// Aggregator is spec §4.E's quadruple: init produces the zero state,
// accumulate folds one event's argument value into it, merge combines two
// states (required for tilt-frame cascades, where an inner window's final
// state folds into the outer window's running state), and emit projects the
// state to the Value an `aggr::*` call yields.
//
// State is an opaque value private to each Aggregator implementation;
// pkg/query never inspects it directly, only ever round-trips it through
// these four methods.
type Aggregator interface {
	Init() State
	Accumulate(state State, arg types.Value) (State, error)
	Merge(a, b State) State
	Emit(state State) types.Value
}

type State interface{}

// Registry resolves an `aggr::module::name` call target to its Aggregator
// implementation, the aggregation-engine analogue of eval.Registry.
type Registry struct {
	aggregators map[string]Aggregator
}

// NewRegistry builds the registry of aggregators spec §4.E names:
// stats::{count,sum,min,max,mean,var,stdev} and win::collect_flattened.
// DD-sketch and HDR histogram sketches are not in this registry: each is
// parameterised, so ddsketch.go/hdr.go expose them as constructors rather
// than a single shared instance (see NewDDSketch, NewHDRHistogram).
func NewRegistry() *Registry {
	r := &Registry{aggregators: map[string]Aggregator{}}
	r.aggregators["stats::count"] = countAggregator{}
	r.aggregators["stats::sum"] = statAggregator{field: fieldSum}
	r.aggregators["stats::min"] = statAggregator{field: fieldMin}
	r.aggregators["stats::max"] = statAggregator{field: fieldMax}
	r.aggregators["stats::mean"] = statAggregator{field: fieldMean}
	r.aggregators["stats::var"] = statAggregator{field: fieldVar}
	r.aggregators["stats::stdev"] = statAggregator{field: fieldStdev}
	r.aggregators["win::collect_flattened"] = collectFlattenedAggregator{}
	return r
}

func (r *Registry) Lookup(module, name string) (Aggregator, bool) {
	a, ok := r.aggregators[module+"::"+name]
	return a, ok
}

// Register installs a custom aggregator under module::name (available to
// host extensions; nothing in this repository calls it).
func (r *Registry) Register(module, name string, a Aggregator) {
	r.aggregators[module+"::"+name] = a
}

type statField int

const (
	fieldSum statField = iota
	fieldMin
	fieldMax
	fieldMean
	fieldVar
	fieldStdev
)

// statState is the running sufficient statistics for sum/min/max/mean/
// var/stdev, kept together so every stats::* aggregator shares one
// accumulation pass (an event contributes to sum, min, max and the
// running mean/variance in the same Accumulate call) and one merge
// algorithm: Welford's online algorithm for the running mean/variance
// (Welford 1962), combined across partial states with Chan et al.'s
// parallel-variance formula for Merge — the standard numerically stable
// approach, needing nothing beyond "math".
type statState struct {
	count      int64
	sum        float64
	min, max   float64
	mean, m2   float64
}

func (s statState) accumulate(x float64) statState {
	s.count++
	s.sum += x
	if s.count == 1 || x < s.min {
		s.min = x
	}
	if s.count == 1 || x > s.max {
		s.max = x
	}
	delta := x - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (x - s.mean)
	return s
}

func (a statState) merge(b statState) statState {
	if a.count == 0 {
		return b
	}
	if b.count == 0 {
		return a
	}
	out := statState{count: a.count + b.count}
	out.sum = a.sum + b.sum
	out.min = minFloat(a.min, b.min)
	out.max = maxFloat(a.max, b.max)
	delta := b.mean - a.mean
	out.mean = (a.mean*float64(a.count) + b.mean*float64(b.count)) / float64(out.count)
	out.m2 = a.m2 + b.m2 + delta*delta*float64(a.count)*float64(b.count)/float64(out.count)
	return out
}

// variance reports the population variance (divide by count, not
// count-1): spec §4.E names `var` without specifying sample vs
// population, and tremor's stats window is closed (every event the
// window ever saw), so population variance is the natural reading.
func (s statState) variance() float64 {
	if s.count < 1 {
		return 0
	}
	return s.m2 / float64(s.count)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

type statAggregator struct{ field statField }

func (statAggregator) Init() State { return statState{} }

func (statAggregator) Accumulate(state State, arg types.Value) (State, error) {
	x, ok := arg.Number()
	if !ok {
		return state, fmt.Errorf("stats aggregator requires a numeric argument, got %s", arg.Kind())
	}
	return state.(statState).accumulate(x), nil
}

func (statAggregator) Merge(a, b State) State {
	return a.(statState).merge(b.(statState))
}

func (g statAggregator) Emit(state State) types.Value {
	s := state.(statState)
	switch g.field {
	case fieldSum:
		return types.Float(s.sum)
	case fieldMin:
		return types.Float(s.min)
	case fieldMax:
		return types.Float(s.max)
	case fieldMean:
		return types.Float(s.mean)
	case fieldVar:
		return types.Float(s.variance())
	case fieldStdev:
		return types.Float(math.Sqrt(s.variance()))
	default:
		return types.Null
	}
}

type countAggregator struct{}

func (countAggregator) Init() State { return int64(0) }

func (countAggregator) Accumulate(state State, arg types.Value) (State, error) {
	return state.(int64) + 1, nil
}

func (countAggregator) Merge(a, b State) State {
	return a.(int64) + b.(int64)
}

func (countAggregator) Emit(state State) types.Value {
	return types.Int(state.(int64))
}

// collectFlattenedAggregator implements win::collect_flattened: gather
// every accumulated argument into one array, flattening one level when the
// argument itself is an array (spec §4.E names it without elaborating; the
// "flattened" in the name is the one-level array::flatten already exposed
// at pkg/stdlib's array::flatten, applied here per accumulated element
// rather than to the whole collection).
type collectFlattenedAggregator struct{}

func (collectFlattenedAggregator) Init() State { return []types.Value{} }

func (collectFlattenedAggregator) Accumulate(state State, arg types.Value) (State, error) {
	items := state.([]types.Value)
	if arr, ok := arg.AsArray(); ok {
		items = append(items, arr...)
	} else {
		items = append(items, arg)
	}
	return items, nil
}

func (collectFlattenedAggregator) Merge(a, b State) State {
	return append(append([]types.Value{}, a.([]types.Value)...), b.([]types.Value)...)
}

func (collectFlattenedAggregator) Emit(state State) types.Value {
	return types.Array(append([]types.Value{}, state.([]types.Value)...))
}
