package window

import (
	"math"

	"github.com/tremor-rs/tremor/pkg/types"
)

// hdrHistogram implements a simplified HdrHistogram (Tene, Bruno, Compton
// et al.): values are tracked with a fixed number of significant decimal
// digits over a configured [min, max] range. Unlike ddSketch's geometric
// buckets, HDR buckets are linear within successive power-of-two
// magnitude bands, giving constant absolute precision within a band
// rather than constant relative precision everywhere — the complementary
// sketch spec §4.E asks for by name alongside DD-sketch. Built directly
// from the published algorithm description with only "math", for the
// same reason ddsketch.go gives: nothing in the retrieved pack supplies
// either sketch.
type hdrHistogram struct {
	lowestDiscernible float64
	highestTrackable  float64
	sigDigits         int
	unitMagnitude     int
	subBucketCount    int
	subBucketHalf     int
	counts            map[int]int64
	count             int64
	total             float64
}

func NewHDRHistogram(lowestDiscernible, highestTrackable float64, significantDigits int) Aggregator {
	return &hdrAggregator{lowest: lowestDiscernible, highest: highestTrackable, sig: significantDigits}
}

type hdrAggregator struct {
	lowest, highest float64
	sig             int
}

func (a *hdrAggregator) Init() State {
	return newHDR(a.lowest, a.highest, a.sig)
}

func newHDR(lowest, highest float64, sig int) *hdrHistogram {
	if lowest < 1 {
		lowest = 1
	}
	subBucketCount := 1
	// smallest power of two subBucketCount such that subBucketCount
	// covers 10^sig distinct values (the standard HDR derivation).
	for subBucketCount < pow10(sig) {
		subBucketCount <<= 1
	}
	return &hdrHistogram{
		lowestDiscernible: lowest,
		highestTrackable:  highest,
		sigDigits:         sig,
		unitMagnitude:      int(math.Log2(lowest)),
		subBucketCount:    subBucketCount,
		subBucketHalf:     subBucketCount / 2,
		counts:            map[int]int64{},
	}
}

func pow10(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

func (h *hdrHistogram) clone() *hdrHistogram {
	out := &hdrHistogram{
		lowestDiscernible: h.lowestDiscernible, highestTrackable: h.highestTrackable,
		sigDigits: h.sigDigits, unitMagnitude: h.unitMagnitude,
		subBucketCount: h.subBucketCount, subBucketHalf: h.subBucketHalf,
		counts: make(map[int]int64, len(h.counts)), count: h.count, total: h.total,
	}
	for k, v := range h.counts {
		out.counts[k] = v
	}
	return out
}

// bucketFor maps a value to its linear sub-bucket index within the
// power-of-two band it falls in, clamping to the configured range.
func (h *hdrHistogram) bucketFor(v float64) int {
	if v < h.lowestDiscernible {
		v = h.lowestDiscernible
	}
	if v > h.highestTrackable {
		v = h.highestTrackable
	}
	bucketIdx := int(math.Log2(v)) - h.unitMagnitude
	if bucketIdx < 0 {
		bucketIdx = 0
	}
	scale := math.Pow(2, float64(bucketIdx+h.unitMagnitude))
	sub := int((v/scale - 1) * float64(h.subBucketHalf))
	return bucketIdx*h.subBucketHalf + sub
}

func (h *hdrHistogram) valueFor(idx int) float64 {
	bucketIdx := idx / h.subBucketHalf
	sub := idx % h.subBucketHalf
	scale := math.Pow(2, float64(bucketIdx+h.unitMagnitude))
	return (1 + (float64(sub)+0.5)/float64(h.subBucketHalf)) * scale
}

func (h *hdrHistogram) add(v float64) {
	h.count++
	h.total += v
	h.counts[h.bucketFor(v)]++
}

func (h *hdrHistogram) merge(o *hdrHistogram) *hdrHistogram {
	out := h.clone()
	out.count += o.count
	out.total += o.total
	for k, v := range o.counts {
		out.counts[k] += v
	}
	return out
}

func (h *hdrHistogram) quantile(q float64) float64 {
	if h.count == 0 {
		return 0
	}
	rank := int64(q * float64(h.count-1))
	var seen int64
	for _, idx := range sortedIntKeysAsc(h.counts) {
		seen += h.counts[idx]
		if seen > rank {
			return h.valueFor(idx)
		}
	}
	return 0
}

func (a *hdrAggregator) Accumulate(state State, arg types.Value) (State, error) {
	x, ok := arg.Number()
	if !ok {
		return state, errNotNumeric(arg)
	}
	s := state.(*hdrHistogram).clone()
	s.add(x)
	return s, nil
}

func (a *hdrAggregator) Merge(x, y State) State {
	return x.(*hdrHistogram).merge(y.(*hdrHistogram))
}

func (a *hdrAggregator) Emit(state State) types.Value {
	s := state.(*hdrHistogram)
	rec := types.NewRecord()
	rec.Set("count", types.Int(s.count))
	if s.count > 0 {
		rec.Set("mean", types.Float(s.total/float64(s.count)))
	} else {
		rec.Set("mean", types.Float(0))
	}
	rec.Set("p50", types.Float(s.quantile(0.5)))
	rec.Set("p90", types.Float(s.quantile(0.9)))
	rec.Set("p99", types.Float(s.quantile(0.99)))
	return types.RecordValue(rec)
}
