package jsfn_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tremor-rs/tremor/pkg/jsfn"
	"github.com/tremor-rs/tremor/pkg/types"
)

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".js"), []byte(src), 0o644); err != nil {
		t.Fatalf("writing %s.js: %v", name, err)
	}
}

func TestCallReturnsScalar(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "double", "function double(x) { return x * 2; }")

	b := jsfn.New(dir)
	got, err := b.Call(context.Background(), "double", []types.Value{types.Int(21)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	i, ok := got.AsInt()
	if !ok || i != 42 {
		t.Fatalf("Call() = %v, want 42", got)
	}
}

func TestCallRoundTripsRecordsAndArrays(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "addField", `
		function addField(rec) {
			rec.added = rec.values.length;
			return rec;
		}
	`)

	rec := types.NewRecord()
	rec.Set("values", types.Array([]types.Value{types.Int(1), types.Int(2), types.Int(3)}))

	b := jsfn.New(dir)
	got, err := b.Call(context.Background(), "addField", []types.Value{types.RecordValue(rec)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	gotRec, ok := got.AsRecord()
	if !ok {
		t.Fatalf("Call() = %v, want a record", got)
	}
	added, _ := gotRec.Get("added")
	if i, _ := added.AsInt(); i != 3 {
		t.Fatalf("added field = %v, want 3", added)
	}
}

func TestCallCachesCompiledProgram(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "identity", "function identity(x) { return x; }")

	b := jsfn.New(dir)
	ctx := context.Background()
	if _, err := b.Call(ctx, "identity", []types.Value{types.Int(1)}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	// remove the source file; a second call must still succeed because the
	// compiled program is cached by target name rather than re-read from disk.
	if err := os.Remove(filepath.Join(dir, "identity.js")); err != nil {
		t.Fatalf("removing fixture: %v", err)
	}
	if _, err := b.Call(ctx, "identity", []types.Value{types.Int(2)}); err != nil {
		t.Fatalf("second call should use the cached program: %v", err)
	}
}

func TestCallMissingScriptFile(t *testing.T) {
	b := jsfn.New(t.TempDir())
	_, err := b.Call(context.Background(), "nope", nil)
	if err == nil || !strings.Contains(err.Error(), "nope.js") {
		t.Fatalf("Call() err = %v, want it to name the missing file", err)
	}
}

func TestCallMissingFunctionDefinition(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "empty", "var x = 1;")

	b := jsfn.New(dir)
	_, err := b.Call(context.Background(), "empty", nil)
	if err == nil || !strings.Contains(err.Error(), "does not define a function") {
		t.Fatalf("Call() err = %v, want a missing-function error", err)
	}
}

func TestCallPropagatesThrownError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "boom", `function boom() { throw new Error("kaboom"); }`)

	b := jsfn.New(dir)
	_, err := b.Call(context.Background(), "boom", nil)
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("Call() err = %v, want it to mention the thrown message", err)
	}
}

func TestCallIsolatesStateBetweenCalls(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "counter", `
		var n = 0;
		function counter() { n = n + 1; return n; }
	`)

	b := jsfn.New(dir)
	ctx := context.Background()
	first, err := b.Call(ctx, "counter", nil)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := b.Call(ctx, "counter", nil)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("expected each call to get a fresh runtime, got %v then %v", first, second)
	}
}
