package eval

import "github.com/tremor-rs/tremor/pkg/types"

// Emission is one (value, port) pair produced by `emit` or by a script's
// implicit final-event emission (spec §4.C).
type Emission struct {
	Value types.Value
	Port  string
}

// Result is what running a whole script against an envelope produces:
// the (possibly mutated) envelope plus every emission recorded along the
// way. At most one emission is produced per script run: `emit` records one
// and `drop` none, both short-circuiting everything after them, and a
// script with neither emits the final expression's value on "out" (spec
// §4.C Termination).
type Result struct {
	Envelope  *Envelope
	Emissions []Emission
}

// halt is the structured non-local return `emit`/`drop` perform. Spec §9
// explicitly calls for a result-carrying short-circuit rather than host
// exceptions, so halt is threaded as an ordinary Go error value (checked
// with a type assertion, never a panic) up through block/match/for
// evaluation until Run catches it.
type halt struct {
	dropped bool
	value   types.Value
	port    string
}

func (h *halt) Error() string { return "script halted by emit/drop" }

func asHalt(err error) (*halt, bool) {
	h, ok := err.(*halt)
	return h, ok
}
