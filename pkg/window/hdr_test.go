package window_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

func TestHDRHistogramMeanAndQuantiles(t *testing.T) {
	agg := window.NewHDRHistogram(1, 10000, 3)
	s := agg.Init()
	for i := 1; i <= 1000; i++ {
		var err error
		s, err = agg.Accumulate(s, types.Int(int64(i)))
		if err != nil {
			t.Fatalf("Accumulate: %v", err)
		}
	}
	rec, _ := agg.Emit(s).AsRecord()

	count, _ := rec.Get("count")
	if n, _ := count.AsInt(); n != 1000 {
		t.Fatalf("count = %v, want 1000", count)
	}

	mean, _ := rec.Get("mean")
	meanF, _ := mean.AsFloat()
	if meanF < 480 || meanF > 520 {
		t.Errorf("mean = %v, want roughly 500.5", meanF)
	}

	p50, _ := rec.Get("p50")
	p50F, _ := p50.AsFloat()
	if p50F < 400 || p50F > 600 {
		t.Errorf("p50 = %v, want roughly 500", p50F)
	}
}

func TestHDRHistogramEmptyStateHasZeroMean(t *testing.T) {
	agg := window.NewHDRHistogram(1, 10000, 3)
	rec, _ := agg.Emit(agg.Init()).AsRecord()
	mean, _ := rec.Get("mean")
	if f, _ := mean.AsFloat(); f != 0 {
		t.Fatalf("mean of an empty histogram = %v, want 0", f)
	}
}

func TestHDRHistogramMergeCombinesCounts(t *testing.T) {
	agg := window.NewHDRHistogram(1, 10000, 3)
	a, _ := agg.Accumulate(agg.Init(), types.Int(10))
	a, _ = agg.Accumulate(a, types.Int(20))
	b, _ := agg.Accumulate(agg.Init(), types.Int(30))

	merged := agg.Merge(a, b)
	rec, _ := agg.Emit(merged).AsRecord()
	count, _ := rec.Get("count")
	if n, _ := count.AsInt(); n != 3 {
		t.Fatalf("merged count = %v, want 3", count)
	}
}

func TestHDRHistogramClampsOutOfRangeValues(t *testing.T) {
	agg := window.NewHDRHistogram(1, 100, 3)
	s, err := agg.Accumulate(agg.Init(), types.Int(100000))
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	rec, _ := agg.Emit(s).AsRecord()
	count, _ := rec.Get("count")
	if n, _ := count.AsInt(); n != 1 {
		t.Fatalf("count = %v, want 1 even for an out-of-range value", count)
	}
}
