package window

import (
	"math"

	"github.com/tremor-rs/tremor/pkg/types"
)

// ddSketch implements a simplified DDSketch (Masson, Rim & Lee, "DDSketch:
// A Fast, Fully-Mergeable Quantile Sketch with Relative-Error Guarantees",
// VLDB 2019): values are bucketed on a logarithmic scale with ratio gamma,
// giving every bucket a bounded relative width and therefore a bounded
// relative error on any quantile estimate, independent of the value's
// magnitude. There is no sketch library anywhere in the retrieved example
// pack (see DESIGN.md); this is written directly from the paper's §3.1-3.3
// using only "math" — the paper's construction is the whole point, a
// generic histogram library would not give the relative-error guarantee
// spec §4.E's "sketches (DD-sketch, HDR)" calls for by name.
type ddSketch struct {
	gamma    float64
	logGamma float64
	pos      map[int]int64
	neg      map[int]int64
	zero     int64
	count    int64
}

// NewDDSketch builds a sketch with the given relative accuracy (e.g. 0.01
// for 1% relative error on any quantile), the sketch's only tuning knob
// per the paper.
func NewDDSketch(relativeAccuracy float64) Aggregator {
	gamma := (1 + relativeAccuracy) / (1 - relativeAccuracy)
	return &ddSketchAggregator{gamma: gamma, logGamma: math.Log(gamma)}
}

type ddSketchAggregator struct {
	gamma    float64
	logGamma float64
}

func (a *ddSketchAggregator) Init() State {
	return &ddSketch{gamma: a.gamma, logGamma: a.logGamma, pos: map[int]int64{}, neg: map[int]int64{}}
}

func (a *ddSketchAggregator) Accumulate(state State, arg types.Value) (State, error) {
	x, ok := arg.Number()
	if !ok {
		return state, errNotNumeric(arg)
	}
	s := state.(*ddSketch).clone()
	s.add(x)
	return s, nil
}

func (a *ddSketchAggregator) Merge(x, y State) State {
	return x.(*ddSketch).merge(y.(*ddSketch))
}

// Emit returns a record of the quantiles DDSketch is typically queried for
// (p50/p90/p99/max); spec §4.E names the sketch kinds without specifying
// an emit shape, and a record of named quantiles is the natural Value
// projection of "a sketch" at emission time (see DESIGN.md Open Question).
func (a *ddSketchAggregator) Emit(state State) types.Value {
	s := state.(*ddSketch)
	rec := types.NewRecord()
	rec.Set("count", types.Int(s.count))
	rec.Set("p50", types.Float(s.quantile(0.5)))
	rec.Set("p90", types.Float(s.quantile(0.9)))
	rec.Set("p99", types.Float(s.quantile(0.99)))
	rec.Set("max", types.Float(s.quantile(1.0)))
	return types.RecordValue(rec)
}

func (s *ddSketch) clone() *ddSketch {
	out := &ddSketch{gamma: s.gamma, logGamma: s.logGamma, zero: s.zero, count: s.count,
		pos: make(map[int]int64, len(s.pos)), neg: make(map[int]int64, len(s.neg))}
	for k, v := range s.pos {
		out.pos[k] = v
	}
	for k, v := range s.neg {
		out.neg[k] = v
	}
	return out
}

func (s *ddSketch) bucketIndex(v float64) int {
	return int(math.Ceil(math.Log(v) / s.logGamma))
}

func (s *ddSketch) bucketValue(idx int) float64 {
	// the paper's estimator: the bucket's boundary geometric mean.
	return 2 * math.Pow(s.gamma, float64(idx)) / (s.gamma + 1)
}

func (s *ddSketch) add(v float64) {
	s.count++
	switch {
	case v > 0:
		s.pos[s.bucketIndex(v)]++
	case v < 0:
		s.neg[s.bucketIndex(-v)]++
	default:
		s.zero++
	}
}

func (s *ddSketch) merge(o *ddSketch) *ddSketch {
	out := s.clone()
	out.count += o.count
	out.zero += o.zero
	for k, v := range o.pos {
		out.pos[k] += v
	}
	for k, v := range o.neg {
		out.neg[k] += v
	}
	return out
}

// quantile walks buckets from most-negative to most-positive, accumulating
// counts until the rank threshold for q is reached.
func (s *ddSketch) quantile(q float64) float64 {
	if s.count == 0 {
		return 0
	}
	rank := int64(q * float64(s.count-1))
	var seen int64

	negKeys := sortedIntKeysDesc(s.neg)
	for _, k := range negKeys {
		seen += s.neg[k]
		if seen > rank {
			return -s.bucketValue(k)
		}
	}
	seen += s.zero
	if seen > rank {
		return 0
	}
	posKeys := sortedIntKeysAsc(s.pos)
	for _, k := range posKeys {
		seen += s.pos[k]
		if seen > rank {
			return s.bucketValue(k)
		}
	}
	return 0
}

func errNotNumeric(v types.Value) error {
	return &typeMismatch{kind: v.Kind()}
}

type typeMismatch struct{ kind types.Kind }

func (e *typeMismatch) Error() string {
	return "sketch aggregator requires a numeric argument, got " + e.kind.String()
}
