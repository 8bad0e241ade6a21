package pipeline

import (
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// errorRecord builds the {error: <message>, source: <span>} payload spec
// §4.G specifies for any runtime error an operator raises: "converted to
// an event on that operator's conventional err port with a payload of
// {error: <message>, source: <span>}". source is the empty string when err
// did not carry a [*diag.Error] span (e.g. a bare Go error surfaced from
// an intrinsic implementation).
func errorRecord(err error) types.Value {
	rec := types.NewRecord()
	rec.Set("error", types.String(err.Error()))
	source := ""
	if de, ok := err.(*diag.Error); ok {
		source = de.Span.String()
	}
	rec.Set("source", types.String(source))
	return types.RecordValue(rec)
}
