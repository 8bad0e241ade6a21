// Package wasmfn implements an eval.Backend that runs `wasm::` intrinsic
// functions as WASI command modules under wazero, the embeddable runtime
// the teacher repo already depends on (go.mod) for its own mirror-image
// use case — compiling gosonata itself to a WASI guest
// (cmd/wasm/wasi/main.go) — but never instantiates from the host side.
// That guest's documented protocol ("single JSON object on stdin → single
// JSON object on stdout") is reused verbatim as this package's host/guest
// contract: intrinsic modules are ordinary WASI command binaries, each
// invocation runs them to completion once and reads their JSON response.
package wasmfn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tremor-rs/tremor/pkg/types"
)

// request/response mirror cmd/wasm/wasi/main.go's wire shape exactly,
// generalized from "a single jsonata query" to "a target function's
// argument list" since tremor intrinsics are applied functions, not
// queries against one document.
type request struct {
	Target string        `json:"target"`
	Args   []interface{} `json:"args"`
}

type response struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Backend loads .wasm files by name and runs each intrinsic call as a
// fresh module instance (a WASI command module calls _start and exits;
// it cannot be called twice, so each Call gets its own instantiation from
// a shared compiled module).
type Backend struct {
	runtime wazero.Runtime
	dir     string

	mu      sync.Mutex
	modules map[string]wazero.CompiledModule
}

// New creates a wasmfn Backend that resolves the module of an
// `as wasm::<name>` intrinsic target from dir/<name>.wasm.
func New(ctx context.Context, dir string) *Backend {
	return &Backend{
		runtime: wazero.NewRuntime(ctx),
		dir:     dir,
		modules: map[string]wazero.CompiledModule{},
	}
}

// Close releases every compiled module and the underlying wazero runtime.
func (b *Backend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

func (b *Backend) compiled(ctx context.Context, name string) (wazero.CompiledModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cm, ok := b.modules[name]; ok {
		return cm, nil
	}
	bin, err := os.ReadFile(b.dir + "/" + name + ".wasm")
	if err != nil {
		return nil, fmt.Errorf("wasmfn: reading %s.wasm: %w", name, err)
	}
	cm, err := b.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("wasmfn: compiling %s.wasm: %w", name, err)
	}
	b.modules[name] = cm
	return cm, nil
}

// Call implements eval.Backend. target is the `.wasm` module's base name
// (the ModuleName of an `intrinsic fn NAME(...) as wasm::TARGET`
// declaration, i.e. TARGET without its `wasm::` prefix); target and the
// JSON-converted args are written to the module's stdin as one request
// document.
func (b *Backend) Call(ctx context.Context, target string, args []types.Value) (types.Value, error) {
	cm, err := b.compiled(ctx, target)
	if err != nil {
		return types.Null, err
	}

	reqArgs := make([]interface{}, len(args))
	for i, a := range args {
		reqArgs[i] = valueToJSON(a)
	}
	reqBody, err := json.Marshal(request{Target: target, Args: reqArgs})
	if err != nil {
		return types.Null, fmt.Errorf("wasmfn: encoding request: %w", err)
	}

	var stdout bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithStdin(bytes.NewReader(reqBody)).
		WithStdout(&stdout).
		WithStderr(os.Stderr).
		WithName(target)

	wasiMod, err := wasi_snapshot_preview1.Instantiate(ctx, b.runtime)
	if err != nil {
		return types.Null, fmt.Errorf("wasmfn: instantiating WASI: %w", err)
	}
	defer wasiMod.Close(ctx)

	mod, err := b.runtime.InstantiateModule(ctx, cm, cfg)
	if err != nil {
		// A WASI command module that calls os.Exit(1) surfaces here as a
		// sys.ExitError rather than a Go panic; either way the module's
		// own JSON error response (if it managed to write one before
		// exiting) is still the more useful diagnostic, so it's checked
		// first below.
		if stdout.Len() == 0 {
			return types.Null, fmt.Errorf("wasmfn: running %s: %w", target, err)
		}
	} else {
		defer mod.Close(ctx)
	}

	var resp response
	if decErr := json.Unmarshal(stdout.Bytes(), &resp); decErr != nil {
		return types.Null, fmt.Errorf("wasmfn: %s produced no valid response: %w", target, decErr)
	}
	if resp.Error != "" {
		return types.Null, fmt.Errorf("wasmfn: %s: %s", target, resp.Error)
	}
	return jsonToValue(resp.Result), nil
}

// valueToJSON/jsonToValue mirror pkg/stdlib's json::encode/decode
// conversions (unexported there, so duplicated rather than imported to
// keep this package independent of the stdlib registry wiring); a decoded
// record comes back key-sorted since encoding/json's interface{} decode
// target is an unordered map[string]interface{}.
func valueToJSON(v types.Value) interface{} {
	switch v.Kind() {
	case types.KindNull:
		return nil
	case types.KindBool:
		b, _ := v.AsBool()
		return b
	case types.KindInt:
		i, _ := v.AsInt()
		return i
	case types.KindFloat:
		f, _ := v.AsFloat()
		return f
	case types.KindString:
		s, _ := v.AsString()
		return s
	case types.KindBinary:
		b, _ := v.AsBinary()
		return string(b)
	case types.KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			out[i] = valueToJSON(e)
		}
		return out
	case types.KindRecord:
		rec, _ := v.AsRecord()
		out := make(map[string]interface{}, rec.Len())
		for _, k := range rec.Keys() {
			val, _ := rec.Get(k)
			out[k] = valueToJSON(val)
		}
		return out
	default:
		return nil
	}
}

func jsonToValue(v interface{}) types.Value {
	switch t := v.(type) {
	case nil:
		return types.Null
	case bool:
		return types.Bool(t)
	case int64:
		return types.Int(t)
	case float64:
		if t == float64(int64(t)) {
			return types.Int(int64(t))
		}
		return types.Float(t)
	case string:
		return types.String(t)
	case []interface{}:
		out := make([]types.Value, len(t))
		for i, e := range t {
			out[i] = jsonToValue(e)
		}
		return types.Array(out)
	case map[string]interface{}:
		rec := types.NewRecord()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rec.Set(k, jsonToValue(t[k]))
		}
		return types.RecordValue(rec)
	default:
		return types.Null
	}
}
