// Package stdlib implements spec §4.D's standard library: the module::name
// intrinsics every tremor-script and trickle program can call without a
// `use` or wasm/js backend declaration. Grounded on the teacher's
// pkg/evaluator/functions.go builtin-table shape (name -> impl, lazily
// built once), split one table per module the way the source's std/*.tremor
// files are split one file per module.
package stdlib

import (
	"sync"

	"github.com/tremor-rs/tremor/pkg/eval"
)

// Registry implements eval.Registry by dispatching module::name lookups
// into one function table per module.
type Registry struct {
	modules map[string]map[string]eval.Func
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the standard library registry every module in this
// package contributes to, built once and shared (the teacher's
// builtinFunctionsOnce pattern, one level up since we have many modules
// instead of one flat table).
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
	})
	return defaultReg
}

// New assembles a fresh Registry with every standard module registered.
// Most callers want [Default]; New exists so tests and embedders can build
// an isolated registry (e.g. to stub out system:: or origin::).
func New() *Registry {
	r := &Registry{modules: make(map[string]map[string]eval.Func)}
	r.register("array", arrayModule)
	r.register("record", recordModule)
	r.register("string", stringModule)
	r.register("json", jsonModule)
	r.register("base64", base64Module)
	r.register("url", urlModule)
	r.register("re", reModule)
	r.register("math", mathModule)
	r.register("type", typeModule)
	r.register("random", randomModule)
	r.register("range", rangeModule)
	r.register("path", pathModule)
	r.register("size", sizeModule)
	r.register("system", systemModule)
	r.register("origin", originModule)
	r.register("chash", chashModule)
	return r
}

func (r *Registry) register(module string, fns map[string]eval.Func) {
	r.modules[module] = fns
}

// Lookup implements eval.Registry.
func (r *Registry) Lookup(module, name string) (eval.Func, bool) {
	mod, ok := r.modules[module]
	if !ok {
		return nil, false
	}
	fn, ok := mod[name]
	return fn, ok
}

