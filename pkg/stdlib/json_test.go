package stdlib_test

import (
	"strings"
	"testing"

	"github.com/tremor-rs/tremor/pkg/types"
)

func TestJSONEncodePreservesRecordInsertionOrder(t *testing.T) {
	r := types.NewRecord()
	r.Set("b", types.Int(1))
	r.Set("a", types.Int(2))
	got, err := call(t, "json", "encode", []types.Value{types.RecordValue(r)})
	if err != nil {
		t.Fatalf("json::encode: %v", err)
	}
	s, _ := got.AsString()
	if s != `{"b":1,"a":2}` {
		t.Fatalf("json::encode() = %q, want insertion-order keys", s)
	}
}

func TestJSONEncodePretty(t *testing.T) {
	got, err := call(t, "json", "encode_pretty", []types.Value{types.Array([]types.Value{types.Int(1)})})
	if err != nil {
		t.Fatalf("json::encode_pretty: %v", err)
	}
	s, _ := got.AsString()
	if !strings.Contains(s, "\n") {
		t.Fatalf("json::encode_pretty() = %q, want multi-line output", s)
	}
}

func TestJSONDecodeRoundTrip(t *testing.T) {
	got, err := call(t, "json", "decode", []types.Value{types.String(`{"a": 1, "b": [1, 2, "x"]}`)})
	if err != nil {
		t.Fatalf("json::decode: %v", err)
	}
	rec, ok := got.AsRecord()
	if !ok {
		t.Fatalf("json::decode() = %v, want a record", got)
	}
	a, _ := rec.Get("a")
	if n, _ := a.AsInt(); n != 1 {
		t.Fatalf("decoded a = %v, want 1", a)
	}
}

func TestJSONDecodeInvalidInput(t *testing.T) {
	_, err := call(t, "json", "decode", []types.Value{types.String("{not json")})
	if err == nil {
		t.Fatal("expected an error decoding invalid JSON")
	}
}

func TestJSONEncodeDecodeNumericKindRoundTrip(t *testing.T) {
	got, err := call(t, "json", "decode", []types.Value{types.String("3")})
	if err != nil {
		t.Fatalf("json::decode: %v", err)
	}
	if got.Kind() != types.KindInt {
		t.Fatalf("json::decode(\"3\") kind = %v, want KindInt", got.Kind())
	}
	got, err = call(t, "json", "decode", []types.Value{types.String("3.5")})
	if err != nil {
		t.Fatalf("json::decode: %v", err)
	}
	if got.Kind() != types.KindFloat {
		t.Fatalf("json::decode(\"3.5\") kind = %v, want KindFloat", got.Kind())
	}
}
