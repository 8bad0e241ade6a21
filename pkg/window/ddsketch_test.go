package window_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

func TestDDSketchQuantilesWithinRelativeError(t *testing.T) {
	agg := window.NewDDSketch(0.01)
	s := agg.Init()
	for i := 1; i <= 1000; i++ {
		var err error
		s, err = agg.Accumulate(s, types.Int(int64(i)))
		if err != nil {
			t.Fatalf("Accumulate: %v", err)
		}
	}
	got := agg.Emit(s)
	rec, _ := got.AsRecord()

	count, _ := rec.Get("count")
	if n, _ := count.AsInt(); n != 1000 {
		t.Fatalf("count = %v, want 1000", count)
	}

	p50, _ := rec.Get("p50")
	p50f, _ := p50.AsFloat()
	if p50f < 480 || p50f > 520 {
		t.Errorf("p50 = %v, want roughly 500 (1%% relative error)", p50f)
	}

	p99, _ := rec.Get("p99")
	p99f, _ := p99.AsFloat()
	if p99f < 970 || p99f > 1000 {
		t.Errorf("p99 = %v, want roughly 990", p99f)
	}
}

func TestDDSketchMergeCombinesBothHalves(t *testing.T) {
	agg := window.NewDDSketch(0.01)
	a := agg.Init()
	for i := 1; i <= 500; i++ {
		a, _ = agg.Accumulate(a, types.Int(int64(i)))
	}
	b := agg.Init()
	for i := 501; i <= 1000; i++ {
		b, _ = agg.Accumulate(b, types.Int(int64(i)))
	}
	merged := agg.Merge(a, b)
	rec, _ := agg.Emit(merged).AsRecord()
	count, _ := rec.Get("count")
	if n, _ := count.AsInt(); n != 1000 {
		t.Fatalf("merged count = %v, want 1000", count)
	}
}

func TestDDSketchHandlesNegativeAndZeroValues(t *testing.T) {
	agg := window.NewDDSketch(0.01)
	s := agg.Init()
	for _, v := range []int64{-5, 0, 5} {
		var err error
		s, err = agg.Accumulate(s, types.Int(v))
		if err != nil {
			t.Fatalf("Accumulate(%d): %v", v, err)
		}
	}
	rec, _ := agg.Emit(s).AsRecord()
	count, _ := rec.Get("count")
	if n, _ := count.AsInt(); n != 3 {
		t.Fatalf("count = %v, want 3", count)
	}
}

func TestDDSketchAccumulateRejectsNonNumeric(t *testing.T) {
	agg := window.NewDDSketch(0.01)
	if _, err := agg.Accumulate(agg.Init(), types.String("x")); err == nil {
		t.Fatal("expected an error accumulating a non-numeric value")
	}
}
