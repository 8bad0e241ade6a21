package wasmfn_test

import (
	"context"
	"strings"
	"testing"

	"github.com/tremor-rs/tremor/pkg/wasmfn"
)

func TestCallMissingModuleFile(t *testing.T) {
	ctx := context.Background()
	b := wasmfn.New(ctx, t.TempDir())
	defer b.Close(ctx)

	_, err := b.Call(ctx, "nope", nil)
	if err == nil {
		t.Fatal("expected an error for a missing .wasm module file")
	}
	if !strings.Contains(err.Error(), "nope.wasm") {
		t.Fatalf("error = %q, want it to name the missing file", err.Error())
	}
}

func TestCloseIsIdempotentOnAnUnusedBackend(t *testing.T) {
	ctx := context.Background()
	b := wasmfn.New(ctx, t.TempDir())
	if err := b.Close(ctx); err != nil {
		t.Fatalf("Close() on an unused backend: %v", err)
	}
}
