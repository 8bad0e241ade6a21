package tremor_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tremor-rs/tremor"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// TestAlertScriptClassifiesByArgsBoundThresholds drives examples/alert.tremor
// end to end the way examples/scenario 1 describes: thresholds arrive
// through the operator's args (a `with sundown_low_limit=..., ...` clause
// at creation time), never from the event payload, and every
// classification is signalled on the "err" port.
func TestAlertScriptClassifiesByArgsBoundThresholds(t *testing.T) {
	src, err := os.ReadFile("examples/alert.tremor")
	if err != nil {
		t.Fatalf("reading examples/alert.tremor: %v", err)
	}
	script, err := tremor.CompileScript("examples/alert.tremor", string(src))
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}
	ev := tremor.NewEvaluator()
	args := recVal("sundown_low_limit", types.Int(70), "sundown_high_limit", types.Int(80))

	cases := []struct {
		temperature int64
		description string
		wantSunup   bool
	}{
		{65, "Low Temp Alarm", false},
		{75, "No Alarm", true},
		{120, "High Temp Alarm", false},
	}

	for _, c := range cases {
		event := recVal("temperature", types.Int(c.temperature))
		env := eval.NewEnvelope(event, types.Null, args)
		res, err := ev.Run(context.Background(), script, env)
		if err != nil {
			t.Fatalf("Run(temperature=%d): %v", c.temperature, err)
		}
		if len(res.Emissions) != 1 || res.Emissions[0].Port != "err" {
			t.Fatalf("Emissions(temperature=%d) = %v, want exactly one on \"err\"", c.temperature, res.Emissions)
		}
		rec, ok := res.Emissions[0].Value.AsRecord()
		if !ok {
			t.Fatalf("emitted value = %v, want a record", res.Emissions[0].Value)
		}
		if v, _ := rec.Get("alert_description"); v.String() != c.description {
			t.Fatalf("alert_description(temperature=%d) = %v, want %q", c.temperature, v, c.description)
		}
		if v, ok := rec.Get("alert"); !ok || !v.Truthy() {
			t.Fatalf("alert(temperature=%d) = %v, want true", c.temperature, v)
		}
		_, hasSunup := rec.Get("sunup")
		if hasSunup != c.wantSunup {
			t.Fatalf("has sunup field(temperature=%d) = %v, want %v", c.temperature, hasSunup, c.wantSunup)
		}
	}
}

// TestScriptWithErrorReportsTheExactBadAccessSite drives
// data/script_with_error.tremor against data/input.json the way `tremor run
// data/script_with_error.tremor -i data/input.json` does, and checks the
// resulting diagnostic against the exact text a reader pastes into a
// terminal: input.json has no "foo" field, and the script's event.foo
// access sits at line 3, column 34.
func TestScriptWithErrorReportsTheExactBadAccessSite(t *testing.T) {
	const path = "data/script_with_error.tremor"
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	script, err := tremor.CompileScript(path, string(src))
	if err != nil {
		t.Fatalf("CompileScript: %v", err)
	}

	input, err := os.ReadFile("data/input.json")
	if err != nil {
		t.Fatalf("reading data/input.json: %v", err)
	}
	if strings.Contains(string(input), "foo") {
		t.Fatalf("data/input.json unexpectedly contains \"foo\": %s", input)
	}
	event := recVal("bar", types.Int(1))

	ev := tremor.NewEvaluator()
	env := eval.NewEnvelope(event, types.Null, types.Null)
	_, runErr := ev.Run(context.Background(), script, env)
	if runErr == nil {
		t.Fatal("expected a BadAccess error for the missing \"foo\" field")
	}
	var de *diag.Error
	if !errors.As(runErr, &de) {
		t.Fatalf("Run error = %v, want a *diag.Error", runErr)
	}

	reporter := diag.NewReporter()
	reporter.AddSource(path, string(src))
	report := reporter.Format(de)

	if !strings.Contains(report, "Error in data/script_with_error.tremor:3:34") {
		t.Fatalf("report = %q, want it to contain \"Error in data/script_with_error.tremor:3:34\"", report)
	}
	if !strings.Contains(report, "let low_limit_thresholds = event.foo;") {
		t.Fatalf("report = %q, want it to quote the offending source line", report)
	}
	if !strings.Contains(report, "Trying to access a non existing event key `foo`") {
		t.Fatalf("report = %q, want the BadAccess message naming the missing key", report)
	}
}
