package tremor_test

import (
	"context"
	"testing"

	"github.com/tremor-rs/tremor"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/pipeline"
	"github.com/tremor-rs/tremor/pkg/types"
)

func TestVersionIsNonEmpty(t *testing.T) {
	if tremor.Version() == "" {
		t.Fatal("Version() returned an empty string")
	}
}

func TestParseScriptRejectsInvalidSyntax(t *testing.T) {
	if _, err := tremor.ParseScript("<test>.tremor", "let x = ;"); err == nil {
		t.Fatal("expected a parse error for invalid syntax")
	}
}

func TestEvalComputesAndReturnsAnExpression(t *testing.T) {
	res, err := tremor.Eval(context.Background(), "event.a + event.b;", recVal("a", types.Int(1), "b", types.Int(2)), types.Null)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(res.Emissions) != 1 {
		t.Fatalf("Emissions = %v, want exactly 1", res.Emissions)
	}
	if n, _ := res.Emissions[0].Value.AsInt(); n != 3 {
		t.Fatalf("emitted value = %v, want 3", res.Emissions[0].Value)
	}
}

func TestEvalPropagatesScriptErrors(t *testing.T) {
	_, err := tremor.Eval(context.Background(), "event.missing;", types.Int(1), types.Null)
	if err == nil {
		t.Fatal("expected an error accessing a missing field on a non-record event")
	}
}

func TestCompileScriptAndRunAgainstMultipleEnvelopes(t *testing.T) {
	script, err := tremor.CompileScript("<test>.tremor", "event * 2;")
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := tremor.NewEvaluator()
	for _, in := range []int64{1, 2, 3} {
		env := eval.NewEnvelope(types.Int(in), types.Null, types.Null)
		res, err := ev.Run(context.Background(), script, env)
		if err != nil {
			t.Fatalf("Run(%d): %v", in, err)
		}
		if n, _ := res.Emissions[0].Value.AsInt(); n != in*2 {
			t.Fatalf("Run(%d) emitted %v, want %d", in, res.Emissions[0].Value, in*2)
		}
	}
}

func TestCompileQueryProducesAValidatedDAG(t *testing.T) {
	dag, err := tremor.CompileQuery("<test>.trickle", "select event from in into out;", tremor.NewEvaluator())
	if err != nil {
		t.Fatalf("CompileQuery: %v", err)
	}
	for _, name := range []string{"in", "out", "err"} {
		if _, ok := dag.Nodes[name]; !ok {
			t.Errorf("builtin stream %q missing from compiled DAG", name)
		}
	}
}

func TestCompileQueryRejectsMalformedTrickle(t *testing.T) {
	if _, err := tremor.CompileQuery("<test>.trickle", "select from in into out;", tremor.NewEvaluator()); err == nil {
		t.Fatal("expected an error for a select with no target expression")
	}
}

func TestNewPipelineRunsEndToEnd(t *testing.T) {
	p, err := tremor.NewPipeline("<test>.trickle", "select event from in into out;", "test-instance", nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	ems := p.ProcessSync(context.Background(), pipeline.Event{Value: types.Int(99), Meta: types.Null})
	if len(ems) != 1 {
		t.Fatalf("emissions = %v, want exactly 1", ems)
	}
	if n, _ := ems[0].Value.AsInt(); n != 99 {
		t.Fatalf("emitted value = %v, want 99", ems[0].Value)
	}
}

func TestNewEvaluatorWithRegistryOverridesTheDefaultStdlib(t *testing.T) {
	stub := stubRegistry{fn: func(ctx context.Context, args []types.Value) (types.Value, error) {
		return types.String("stubbed"), nil
	}}
	ev := tremor.NewEvaluator(eval.WithRegistry(stub))
	script, err := tremor.CompileScript("<test>.tremor", `string::len("anything")`)
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	env := eval.NewEnvelope(types.Null, types.Null, types.Null)
	res, err := ev.Run(context.Background(), script, env)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s, _ := res.Emissions[0].Value.AsString(); s != "stubbed" {
		t.Fatalf("emitted value = %v, want the stub's \"stubbed\"", res.Emissions[0].Value)
	}
}

type stubRegistry struct {
	fn eval.Func
}

func (r stubRegistry) Lookup(module, name string) (eval.Func, bool) {
	return r.fn, true
}

func recVal(pairs ...interface{}) types.Value {
	r := types.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(types.Value))
	}
	return types.RecordValue(r)
}
