// Package jsfn implements an eval.Backend that runs `js::` intrinsic
// functions as ECMAScript through goja, grounded on
// _examples/Comcast-sheens/cmd/spectool/js.go's MacroExpander: a
// goja.Runtime created once, source files loaded into it with RunScript,
// and a call made by marshalling the argument through JSON and reading
// the call's return value back out with Value.Export().
package jsfn

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dop251/goja"
	"github.com/tremor-rs/tremor/pkg/types"
)

// Backend loads .js files by name, each expected to define a top-level
// function matching its file's base name (dir/<target>.js defines
// function <target>(...args)), and caches the compiled goja.Program the
// same way MacroExpander.load caches nothing but RunScript recompiles —
// here compilation is cached since intrinsics are called far more often
// than macro-expansion files are loaded once at startup.
type Backend struct {
	dir string

	mu       sync.Mutex
	programs map[string]*goja.Program
}

// New creates a jsfn Backend that resolves the script of an
// `as js::<name>` intrinsic target from dir/<name>.js.
func New(dir string) *Backend {
	return &Backend{dir: dir, programs: map[string]*goja.Program{}}
}

func (b *Backend) program(target string) (*goja.Program, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.programs[target]; ok {
		return p, nil
	}
	src, err := os.ReadFile(b.dir + "/" + target + ".js")
	if err != nil {
		return nil, fmt.Errorf("jsfn: reading %s.js: %w", target, err)
	}
	p, err := goja.Compile(target+".js", string(src), false)
	if err != nil {
		return nil, fmt.Errorf("jsfn: compiling %s.js: %w", target, err)
	}
	b.programs[target] = p
	return p, nil
}

// Call implements eval.Backend. Each call gets a fresh goja.Runtime:
// tremor intrinsics must not carry state between events (spec §4.C),
// and goja.Runtime is not safe for concurrent use, so per-call isolation
// is both the simplest and the correct choice rather than a shared
// runtime guarded by a mutex.
func (b *Backend) Call(ctx context.Context, target string, args []types.Value) (types.Value, error) {
	prog, err := b.program(target)
	if err != nil {
		return types.Null, err
	}

	vm := goja.New()
	if _, err := vm.RunProgram(prog); err != nil {
		return types.Null, fmt.Errorf("jsfn: running %s.js: %w", target, err)
	}

	fnVal := vm.Get(target)
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return types.Null, fmt.Errorf("jsfn: %s.js does not define a function named %q", target, target)
	}

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = vm.ToValue(valueToJSON(a))
	}

	result, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return types.Null, fmt.Errorf("jsfn: %s: %w", target, err)
	}

	exported := result.Export()
	// Export() yields goja's own numeric/map/slice shapes; round-tripping
	// through encoding/json keeps exactly one conversion path (the same
	// one wasmfn and pkg/stdlib's json:: use) instead of a second
	// hand-written goja-specific walk.
	b2, err := json.Marshal(exported)
	if err != nil {
		return types.Null, fmt.Errorf("jsfn: %s: encoding result: %w", target, err)
	}
	var v interface{}
	if err := json.Unmarshal(b2, &v); err != nil {
		return types.Null, fmt.Errorf("jsfn: %s: decoding result: %w", target, err)
	}
	return jsonToValue(v), nil
}

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
