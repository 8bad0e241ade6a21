package stdlib_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
)

func ints(vs ...int64) types.Value {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = types.Int(v)
	}
	return types.Array(out)
}

func TestArrayLen(t *testing.T) {
	got, err := call(t, "array", "len", []types.Value{ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("array::len: %v", err)
	}
	if n, _ := got.AsInt(); n != 3 {
		t.Fatalf("array::len() = %d, want 3", n)
	}
}

func TestArrayIsEmpty(t *testing.T) {
	got, err := call(t, "array", "is_empty", []types.Value{ints()})
	if err != nil {
		t.Fatalf("array::is_empty: %v", err)
	}
	if !got.Truthy() {
		t.Fatal("expected empty array to report is_empty = true")
	}
}

func TestArrayContains(t *testing.T) {
	got, err := call(t, "array", "contains", []types.Value{ints(1, 2, 3), types.Int(2)})
	if err != nil {
		t.Fatalf("array::contains: %v", err)
	}
	if !got.Truthy() {
		t.Fatal("expected array::contains to find the element")
	}
}

func TestArrayPushDoesNotMutateInput(t *testing.T) {
	orig := ints(1, 2)
	got, err := call(t, "array", "push", []types.Value{orig, types.Int(3)})
	if err != nil {
		t.Fatalf("array::push: %v", err)
	}
	gotArr, _ := got.AsArray()
	if len(gotArr) != 3 {
		t.Fatalf("array::push() len = %d, want 3", len(gotArr))
	}
	origArr, _ := orig.AsArray()
	if len(origArr) != 2 {
		t.Fatal("array::push mutated its input array")
	}
}

func TestArrayZipStopsAtShortest(t *testing.T) {
	a := types.Array([]types.Value{types.Int(1), types.Int(2), types.Int(3)})
	b := types.Array([]types.Value{types.String("a"), types.String("b")})
	got, err := call(t, "array", "zip", []types.Value{a, b})
	if err != nil {
		t.Fatalf("array::zip: %v", err)
	}
	arr, _ := got.AsArray()
	if len(arr) != 2 {
		t.Fatalf("array::zip() len = %d, want 2", len(arr))
	}
	row0, _ := arr[0].AsArray()
	if i, _ := row0[0].AsInt(); i != 1 {
		t.Fatalf("row 0 first = %v, want 1", row0[0])
	}
	if s, _ := row0[1].AsString(); s != "a" {
		t.Fatalf("row 0 second = %v, want a", row0[1])
	}
}

func TestArrayUnzipInvertsZip(t *testing.T) {
	rows := types.Array([]types.Value{
		types.Array([]types.Value{types.Int(1), types.String("a")}),
		types.Array([]types.Value{types.Int(2), types.String("b")}),
	})
	got, err := call(t, "array", "unzip", []types.Value{rows})
	if err != nil {
		t.Fatalf("array::unzip: %v", err)
	}
	cols, _ := got.AsArray()
	if len(cols) != 2 {
		t.Fatalf("array::unzip() len = %d, want 2", len(cols))
	}
	col0, _ := cols[0].AsArray()
	if i0, _ := col0[0].AsInt(); i0 != 1 {
		t.Fatalf("col 0 = %v, want [1, 2]", col0)
	}
}

func TestArrayFlattenOneLevel(t *testing.T) {
	nested := types.Array([]types.Value{ints(1, 2), types.Int(3), ints(4)})
	got, err := call(t, "array", "flatten", []types.Value{nested})
	if err != nil {
		t.Fatalf("array::flatten: %v", err)
	}
	arr, _ := got.AsArray()
	want := []int64{1, 2, 3, 4}
	if len(arr) != len(want) {
		t.Fatalf("array::flatten() = %v, want %v", arr, want)
	}
	for i, v := range arr {
		if n, _ := v.AsInt(); n != want[i] {
			t.Errorf("index %d: got %d, want %d", i, n, want[i])
		}
	}
}

func TestArrayCoalesceDropsNulls(t *testing.T) {
	in := types.Array([]types.Value{types.Int(1), types.Null, types.Int(2)})
	got, err := call(t, "array", "coalesce", []types.Value{in})
	if err != nil {
		t.Fatalf("array::coalesce: %v", err)
	}
	arr, _ := got.AsArray()
	if len(arr) != 2 {
		t.Fatalf("array::coalesce() = %v, want 2 elements", arr)
	}
}

func TestArrayJoin(t *testing.T) {
	in := types.Array([]types.Value{types.Int(1), types.Int(2), types.Int(3)})
	got, err := call(t, "array", "join", []types.Value{in, types.String(", ")})
	if err != nil {
		t.Fatalf("array::join: %v", err)
	}
	if s, _ := got.AsString(); s != "1, 2, 3" {
		t.Fatalf("array::join() = %q, want %q", s, "1, 2, 3")
	}
}

func TestArrayLenRejectsNonArray(t *testing.T) {
	if _, err := call(t, "array", "len", []types.Value{types.Int(1)}); err == nil {
		t.Fatal("expected array::len on a non-array to error")
	}
}
