package eval_test

import (
	"context"
	"math"
	"testing"

	"github.com/tremor-rs/tremor"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

func run(t *testing.T, src string, event types.Value) *eval.Result {
	t.Helper()
	script, err := tremor.CompileScript("<test>.tremor", src)
	if err != nil {
		t.Fatalf("CompileScript(%q): %v", src, err)
	}
	ev := tremor.NewEvaluator()
	res, err := ev.Run(context.Background(), script, eval.NewEnvelope(event, types.Null, types.Null))
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return res
}

func TestNoExplicitEmitEmitsFinalValueOnOut(t *testing.T) {
	res := run(t, "1 + 1;", types.Null)
	if len(res.Emissions) != 1 || res.Emissions[0].Port != "out" {
		t.Fatalf("Emissions = %v, want exactly one on \"out\"", res.Emissions)
	}
	if n, _ := res.Emissions[0].Value.AsInt(); n != 2 {
		t.Fatalf("emitted value = %v, want 2", res.Emissions[0].Value)
	}
}

func TestExplicitEmitShortCircuitsRemainingStatements(t *testing.T) {
	res := run(t, `emit "early"; 999;`, types.Null)
	if len(res.Emissions) != 1 {
		t.Fatalf("Emissions = %v, want exactly 1", res.Emissions)
	}
	if s, _ := res.Emissions[0].Value.AsString(); s != "early" {
		t.Fatalf("emitted value = %v, want \"early\" (later statements must not run)", res.Emissions[0].Value)
	}
}

func TestEmitWithNoExpressionEmitsTheCurrentEvent(t *testing.T) {
	res := run(t, "emit;", types.Int(7))
	if len(res.Emissions) != 1 {
		t.Fatalf("Emissions = %v, want exactly 1", res.Emissions)
	}
	if n, _ := res.Emissions[0].Value.AsInt(); n != 7 {
		t.Fatalf("emitted value = %v, want the event value 7", res.Emissions[0].Value)
	}
}

func TestEmitTargetsAnExplicitPort(t *testing.T) {
	res := run(t, `emit {"alert": true} => "err";`, types.Null)
	if len(res.Emissions) != 1 || res.Emissions[0].Port != "err" {
		t.Fatalf("Emissions = %v, want exactly one on \"err\"", res.Emissions)
	}
	rec, ok := res.Emissions[0].Value.AsRecord()
	if !ok {
		t.Fatalf("emitted value = %v, want a record", res.Emissions[0].Value)
	}
	if v, ok := rec.Get("alert"); !ok || !v.Truthy() {
		t.Fatalf("emitted record = %v, want alert: true", rec)
	}
}

func TestEmitWithNoExpressionTargetsAnExplicitPort(t *testing.T) {
	res := run(t, `emit => "out";`, types.Int(3))
	if len(res.Emissions) != 1 || res.Emissions[0].Port != "out" {
		t.Fatalf("Emissions = %v, want exactly one on \"out\"", res.Emissions)
	}
	if n, _ := res.Emissions[0].Value.AsInt(); n != 3 {
		t.Fatalf("emitted value = %v, want the event value 3", res.Emissions[0].Value)
	}
}

func TestIntegerAddOverflowRaisesAnArithError(t *testing.T) {
	script, err := tremor.CompileScript("<test>.tremor", "9223372036854775807 + 1;")
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := tremor.NewEvaluator()
	_, err = ev.Run(context.Background(), script, eval.NewEnvelope(types.Null, types.Null, types.Null))
	if err == nil {
		t.Fatal("expected an overflow error adding past math.MaxInt64")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.Arith {
		t.Fatalf("error = %v, want a *diag.Error with Kind Arith", err)
	}
}

func TestIntegerSubtractOverflowRaisesAnArithError(t *testing.T) {
	script, err := tremor.CompileScript("<test>.tremor", "-9223372036854775807 - 2;")
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := tremor.NewEvaluator()
	_, err = ev.Run(context.Background(), script, eval.NewEnvelope(types.Null, types.Null, types.Null))
	if err == nil {
		t.Fatal("expected an overflow error subtracting past math.MinInt64")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.Arith {
		t.Fatalf("error = %v, want a *diag.Error with Kind Arith", err)
	}
}

func TestIntegerMultiplyOverflowRaisesAnArithError(t *testing.T) {
	script, err := tremor.CompileScript("<test>.tremor", "4611686018427387904 * 4;")
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := tremor.NewEvaluator()
	_, err = ev.Run(context.Background(), script, eval.NewEnvelope(types.Null, types.Null, types.Null))
	if err == nil {
		t.Fatal("expected an overflow error multiplying past math.MaxInt64")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.Arith {
		t.Fatalf("error = %v, want a *diag.Error with Kind Arith", err)
	}
}

func TestIntegerArithmeticWithinRangeDoesNotOverflow(t *testing.T) {
	res := run(t, "9223372036854775806 + 1;", types.Null)
	if n, _ := res.Emissions[0].Value.AsInt(); n != math.MaxInt64 {
		t.Fatalf("emitted value = %v, want math.MaxInt64", res.Emissions[0].Value)
	}
}

func TestDropProducesNoEmission(t *testing.T) {
	res := run(t, `drop; emit "unreachable";`, types.Null)
	if len(res.Emissions) != 0 {
		t.Fatalf("Emissions = %v, want none after drop", res.Emissions)
	}
}

func TestMatchDispatchesToTheMatchingCase(t *testing.T) {
	res := run(t, `
		match event of
			case 1 => "one"
			case 2 => "two"
			case _ => "other"
		end;
	`, types.Int(2))
	if s, _ := res.Emissions[0].Value.AsString(); s != "two" {
		t.Fatalf("match result = %v, want \"two\"", res.Emissions[0].Value)
	}
}

func TestMatchFallsThroughToTheDefaultCase(t *testing.T) {
	res := run(t, `
		match event of
			case 1 => "one"
			case _ => "other"
		end;
	`, types.Int(99))
	if s, _ := res.Emissions[0].Value.AsString(); s != "other" {
		t.Fatalf("match result = %v, want \"other\"", res.Emissions[0].Value)
	}
}

func TestMatchCaseGuardMustHoldToMatch(t *testing.T) {
	res := run(t, `
		match event of
			case n = _ when n > 10 => "big"
			case _ => "small"
		end;
	`, types.Int(5))
	if s, _ := res.Emissions[0].Value.AsString(); s != "small" {
		t.Fatalf("match result = %v, want \"small\"", res.Emissions[0].Value)
	}
}

func TestForComprehensionMapsOverAnArray(t *testing.T) {
	res := run(t, `
		for event of
			case (idx, v) => v * 2
		end;
	`, types.Array([]types.Value{types.Int(1), types.Int(2), types.Int(3)}))
	arr, ok := res.Emissions[0].Value.AsArray()
	if !ok || len(arr) != 3 {
		t.Fatalf("for result = %v, want a 3-element array", res.Emissions[0].Value)
	}
	for i, want := range []int64{2, 4, 6} {
		if n, _ := arr[i].AsInt(); n != want {
			t.Fatalf("for result[%d] = %v, want %d", i, arr[i], want)
		}
	}
}

func TestPatchInsertAddsANewKeyWithoutMutatingTheOriginal(t *testing.T) {
	rec := types.NewRecord()
	rec.Set("a", types.Int(1))
	event := types.RecordValue(rec)

	res := run(t, `patch event of insert "b" => 2 end;`, event)
	patched, _ := res.Emissions[0].Value.AsRecord()
	if v, ok := patched.Get("b"); !ok {
		t.Fatalf("patched record = %v, want key \"b\"", res.Emissions[0].Value)
	} else if n, _ := v.AsInt(); n != 2 {
		t.Fatalf("patched[\"b\"] = %v, want 2", v)
	}
	if _, ok := rec.Get("b"); ok {
		t.Fatal("patch must not mutate the original record")
	}
}

func TestPatchUpdateFailsOnAMissingKey(t *testing.T) {
	rec := types.NewRecord()
	event := types.RecordValue(rec)

	script, err := tremor.CompileScript("<test>.tremor", `patch event of update "missing" => 1 end;`)
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := tremor.NewEvaluator()
	_, err = ev.Run(context.Background(), script, eval.NewEnvelope(event, types.Null, types.Null))
	if err == nil {
		t.Fatal("expected an error updating a key that does not exist")
	}
}

func TestPatchEraseRemovesAKey(t *testing.T) {
	rec := types.NewRecord()
	rec.Set("a", types.Int(1))
	event := types.RecordValue(rec)

	res := run(t, `patch event of erase "a" end;`, event)
	patched, _ := res.Emissions[0].Value.AsRecord()
	if _, ok := patched.Get("a"); ok {
		t.Fatal("expected \"a\" to be erased")
	}
}

func TestUserFunctionCallsReturnTheirBodysLastExpression(t *testing.T) {
	res := run(t, `
		fn double(n)
			n * 2
		end;
		double(21);
	`, types.Null)
	if n, _ := res.Emissions[0].Value.AsInt(); n != 42 {
		t.Fatalf("double(21) = %v, want 42", res.Emissions[0].Value)
	}
}

func TestTailRecursiveFunctionRunsWithoutExceedingRecursionDepth(t *testing.T) {
	script, err := tremor.CompileScript("<test>.tremor", `
		fn countdown(n)
			match n <= 0 of
				case true => drop
				case _ => n
			end;
			countdown(n - 1)
		end;
		countdown(10000);
	`)
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := eval.New(eval.WithRegistry(stubRegistry{}), eval.WithMaxRecursionDepth(100))
	res, err := ev.Run(context.Background(), script, eval.NewEnvelope(types.Null, types.Null, types.Null))
	if err != nil {
		t.Fatalf("tail-recursive countdown should not exceed a recursion depth of 100: %v", err)
	}
	if len(res.Emissions) != 0 {
		t.Fatalf("Emissions = %v, want none: the base case drops", res.Emissions)
	}
}

func TestNonTailRecursionExceedsTheConfiguredDepthLimit(t *testing.T) {
	script, err := tremor.CompileScript("<test>.tremor", `
		fn spin(n)
			spin(n) + 1
		end;
		spin(1);
	`)
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := eval.New(eval.WithRegistry(stubRegistry{}), eval.WithMaxRecursionDepth(50))
	_, err = ev.Run(context.Background(), script, eval.NewEnvelope(types.Null, types.Null, types.Null))
	if err == nil {
		t.Fatal("expected a recursion-depth error for non-tail-recursive infinite recursion")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Kind != diag.Recursion {
		t.Fatalf("error = %v, want a *diag.Error with Kind Recursion", err)
	}
}

type stubRegistry struct{}

func (stubRegistry) Lookup(module, name string) (eval.Func, bool) { return nil, false }
