package stdlib

import (
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// typeErrorf reports a stdlib-level Type error with no span attached;
// [eval]'s callRegistry fills in the call-site span before the error
// reaches script/query code, matching every other diagnostic's "Error in
// file:line:col" contract.
func typeErrorf(format string, args ...interface{}) error {
	return diag.Newf(diag.Type, types.Span{}, format, args...)
}

// arityError reports a fixed-or-ranged argument count mismatch.
func arityError(fn string, want string, got int) error {
	return typeErrorf("%s expects %s argument(s), got %d", fn, want, got)
}
