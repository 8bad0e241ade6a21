package stdlib_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
)

func rec(pairs ...interface{}) types.Value {
	r := types.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(types.Value))
	}
	return types.RecordValue(r)
}

func TestRecordKeysPreservesInsertionOrder(t *testing.T) {
	got, err := call(t, "record", "keys", []types.Value{rec("b", types.Int(1), "a", types.Int(2))})
	if err != nil {
		t.Fatalf("record::keys: %v", err)
	}
	arr, _ := got.AsArray()
	if len(arr) != 2 {
		t.Fatalf("record::keys() = %v, want 2 keys", arr)
	}
	if s, _ := arr[0].AsString(); s != "b" {
		t.Fatalf("first key = %q, want %q (insertion order, not sorted)", s, "b")
	}
}

func TestRecordValues(t *testing.T) {
	got, err := call(t, "record", "values", []types.Value{rec("a", types.Int(1), "b", types.Int(2))})
	if err != nil {
		t.Fatalf("record::values: %v", err)
	}
	arr, _ := got.AsArray()
	if len(arr) != 2 {
		t.Fatalf("record::values() = %v, want 2 values", arr)
	}
}

func TestRecordToArrayAndFromArrayRoundTrip(t *testing.T) {
	orig := rec("a", types.Int(1), "b", types.Int(2))
	asArray, err := call(t, "record", "to_array", []types.Value{orig})
	if err != nil {
		t.Fatalf("record::to_array: %v", err)
	}
	back, err := call(t, "record", "from_array", []types.Value{asArray})
	if err != nil {
		t.Fatalf("record::from_array: %v", err)
	}
	if !orig.Equal(back) {
		t.Fatalf("round trip changed value: %v -> %v", orig, back)
	}
}

func TestRecordExtractDropsMissingKeys(t *testing.T) {
	orig := rec("a", types.Int(1), "b", types.Int(2))
	keys := types.Array([]types.Value{types.String("a"), types.String("missing")})
	got, err := call(t, "record", "extract", []types.Value{orig, keys})
	if err != nil {
		t.Fatalf("record::extract: %v", err)
	}
	gotRec, _ := got.AsRecord()
	if gotRec.Len() != 1 || !gotRec.Contains("a") {
		t.Fatalf("record::extract() = %v, want just {a: 1}", got)
	}
}

func TestRecordCombineIsRightWins(t *testing.T) {
	a := rec("x", types.Int(1), "y", types.Int(2))
	b := rec("y", types.Int(99))
	got, err := call(t, "record", "combine", []types.Value{a, b})
	if err != nil {
		t.Fatalf("record::combine: %v", err)
	}
	gotRec, _ := got.AsRecord()
	y, _ := gotRec.Get("y")
	if n, _ := y.AsInt(); n != 99 {
		t.Fatalf("combined y = %v, want 99 (later record wins)", y)
	}
	keys := gotRec.Keys()
	if len(keys) != 2 || keys[0] != "x" || keys[1] != "y" {
		t.Fatalf("Keys() = %v, want [x y] (first-seen position preserved)", keys)
	}
}

func TestRecordRenameKeepsPosition(t *testing.T) {
	orig := rec("a", types.Int(1), "b", types.Int(2))
	renames := rec("a", types.String("renamed"))
	got, err := call(t, "record", "rename", []types.Value{orig, renames})
	if err != nil {
		t.Fatalf("record::rename: %v", err)
	}
	gotRec, _ := got.AsRecord()
	keys := gotRec.Keys()
	if len(keys) != 2 || keys[0] != "renamed" || keys[1] != "b" {
		t.Fatalf("Keys() = %v, want [renamed b]", keys)
	}
}

func TestRecordContains(t *testing.T) {
	got, err := call(t, "record", "contains", []types.Value{rec("a", types.Int(1)), types.String("a")})
	if err != nil {
		t.Fatalf("record::contains: %v", err)
	}
	if !got.Truthy() {
		t.Fatal("expected record::contains to find key \"a\"")
	}
}
