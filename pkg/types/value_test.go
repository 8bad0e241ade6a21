package types_test

import (
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
)

func TestValueKindPredicates(t *testing.T) {
	tests := []struct {
		name string
		v    types.Value
		kind types.Kind
	}{
		{"null", types.Null, types.KindNull},
		{"bool", types.Bool(true), types.KindBool},
		{"int", types.Int(1), types.KindInt},
		{"float", types.Float(1.5), types.KindFloat},
		{"string", types.String("x"), types.KindString},
		{"binary", types.Binary([]byte("x")), types.KindBinary},
		{"array", types.Array(nil), types.KindArray},
		{"record", types.RecordValue(nil), types.KindRecord},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.v.Kind(); got != test.kind {
				t.Errorf("Kind() = %v, want %v", got, test.kind)
			}
		})
	}
}

func TestValueTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    types.Value
		want bool
	}{
		{"true is truthy", types.Bool(true), true},
		{"false is not truthy", types.Bool(false), false},
		{"zero int is not truthy", types.Int(0), false},
		{"empty string is not truthy", types.String(""), false},
		{"empty array is not truthy", types.Array(nil), false},
		{"null is not truthy", types.Null, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.v.Truthy(); got != test.want {
				t.Errorf("Truthy() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	rec1 := types.NewRecord()
	rec1.Set("a", types.Int(1))
	rec1.Set("b", types.Int(2))

	rec2 := types.NewRecord() // same keys, different insertion order
	rec2.Set("b", types.Int(2))
	rec2.Set("a", types.Int(1))

	tests := []struct {
		name string
		a, b types.Value
		want bool
	}{
		{"int equals int", types.Int(1), types.Int(1), true},
		{"int equals float numerically", types.Int(1), types.Float(1.0), true},
		{"int not equal differing value", types.Int(1), types.Int(2), false},
		{"string equals string", types.String("a"), types.String("a"), true},
		{"string equals binary same bytes", types.String("a"), types.Binary([]byte("a")), true},
		{"arrays order sensitive", types.Array([]types.Value{types.Int(1), types.Int(2)}), types.Array([]types.Value{types.Int(2), types.Int(1)}), false},
		{"arrays equal same order", types.Array([]types.Value{types.Int(1), types.Int(2)}), types.Array([]types.Value{types.Int(1), types.Int(2)}), true},
		{"records equal regardless of insertion order", types.RecordValue(rec1), types.RecordValue(rec2), true},
		{"null equals null", types.Null, types.Null, true},
		{"null not equal to false", types.Null, types.Bool(false), false},
		{"mismatched kinds not equal", types.String("1"), types.Int(1), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Equal(test.b); got != test.want {
				t.Errorf("Equal() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestValueCodepointVsByteLen(t *testing.T) {
	v := types.String("héllo") // 'é' is 2 bytes, 1 codepoint
	if got := v.CodepointLen(); got != 5 {
		t.Errorf("CodepointLen() = %d, want 5", got)
	}
	if got := v.ByteLen(); got != 6 {
		t.Errorf("ByteLen() = %d, want 6", got)
	}
}

func TestValueCloneIsDeepAndIndependent(t *testing.T) {
	inner := types.NewRecord()
	inner.Set("x", types.Int(1))
	orig := types.Array([]types.Value{types.RecordValue(inner)})

	clone := orig.Clone()
	cloneArr, _ := clone.AsArray()
	cloneRec, _ := cloneArr[0].AsRecord()
	cloneRec.Set("x", types.Int(99))

	origArr, _ := orig.AsArray()
	origRec, _ := origArr[0].AsRecord()
	got, _ := origRec.Get("x")
	if i, _ := got.AsInt(); i != 1 {
		t.Fatalf("mutating the clone's nested record mutated the original: got %v", got)
	}
}

func TestLess(t *testing.T) {
	tests := []struct {
		name    string
		a, b    types.Value
		want    bool
		defined bool
	}{
		{"1 < 2", types.Int(1), types.Int(2), true, true},
		{"2 < 1 is false", types.Int(2), types.Int(1), false, true},
		{"int vs float", types.Int(1), types.Float(1.5), true, true},
		{"string order", types.String("a"), types.String("b"), true, true},
		{"mixed kinds undefined", types.String("a"), types.Int(1), false, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := types.Less(test.a, test.b)
			if ok != test.defined {
				t.Fatalf("Less() ok = %v, want %v", ok, test.defined)
			}
			if ok && got != test.want {
				t.Fatalf("Less() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestCoalesceDropsNullsKeepsOrder(t *testing.T) {
	in := []types.Value{types.Int(1), types.Null, types.Int(2), types.Null, types.Int(3)}
	out := types.Coalesce(in)
	want := []int64{1, 2, 3}
	if len(out) != len(want) {
		t.Fatalf("Coalesce() len = %d, want %d", len(out), len(want))
	}
	for i, v := range out {
		got, _ := v.AsInt()
		if got != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got, want[i])
		}
	}
}

func TestRecordInsertionOrderPreservedOnUpdate(t *testing.T) {
	r := types.NewRecord()
	r.Set("a", types.Int(1))
	r.Set("b", types.Int(2))
	r.Set("a", types.Int(99)) // re-assignment keeps first-seen position

	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys() = %v, want [a b]", keys)
	}
	v, _ := r.Get("a")
	if got, _ := v.AsInt(); got != 99 {
		t.Fatalf("Get(a) = %v, want 99", got)
	}
}

func TestRecordRemove(t *testing.T) {
	r := types.NewRecord()
	r.Set("a", types.Int(1))
	r.Set("b", types.Int(2))
	r.Set("c", types.Int(3))
	r.Remove("b")

	if r.Contains("b") {
		t.Fatal("expected b to be removed")
	}
	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("Keys() after Remove = %v, want [a c]", keys)
	}
}

func TestRecordWithSetIsCopyOnWrite(t *testing.T) {
	base := types.NewRecord()
	base.Set("a", types.Int(1))

	updated := base.WithSet("b", types.Int(2))

	if base.Contains("b") {
		t.Fatal("WithSet must not mutate the receiver")
	}
	if !updated.Contains("a") || !updated.Contains("b") {
		t.Fatal("WithSet result must contain both the original and new keys")
	}
}

func TestRecordFromPairsLastWriteWinsKeepsFirstPosition(t *testing.T) {
	r := types.RecordFromPairs([]string{"a", "b", "a"}, []types.Value{types.Int(1), types.Int(2), types.Int(3)})
	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys() = %v, want [a b]", keys)
	}
	v, _ := r.Get("a")
	if got, _ := v.AsInt(); got != 3 {
		t.Fatalf("Get(a) = %v, want 3 (last write wins)", got)
	}
}

func TestValueStringRendering(t *testing.T) {
	rec := types.NewRecord()
	rec.Set("a", types.Int(1))
	tests := []struct {
		name string
		v    types.Value
		want string
	}{
		{"null", types.Null, "null"},
		{"true", types.Bool(true), "true"},
		{"int", types.Int(42), "42"},
		{"string", types.String("hi"), "hi"},
		{"array", types.Array([]types.Value{types.Int(1), types.Int(2)}), "[1, 2]"},
		{"record", types.RecordValue(rec), `{"a": 1}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.v.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestSpanString(t *testing.T) {
	tests := []struct {
		name string
		s    types.Span
		want string
	}{
		{"with file", types.Span{File: "a.tremor", Line: 3, Column: 5}, "a.tremor:3:5"},
		{"without file", types.Span{Line: 1, Column: 1}, "1:1"},
	}
	for _, test := range tests {
		if got := test.s.String(); got != test.want {
			t.Errorf("%s: String() = %q, want %q", test.name, got, test.want)
		}
	}
}
