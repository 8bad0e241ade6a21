package stdlib

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// pathModule implements spec §4.D's single path:: helper. try_default is
// the only intrinsic version of what path evaluation otherwise leaves to
// the caller (catch a BadAccess by hand with match/default patch ops) —
// it exists because reaching into a possibly-absent nested field inline is
// common enough in scripts to deserve a one-call form.
var pathModule = map[string]eval.Func{
	"try_default": pathTryDefault,
}

// pathTryDefault returns args[0] unless it is null, in which case it
// returns the supplied default — the counterpart to a path lookup that the
// caller already guarded with a presence test, e.g.
// `path::try_default(event.maybe, "fallback")`. Evaluating the lookup
// itself happens before the call; a BadAccess during that lookup still
// raises normally (this function never suppresses path errors, only nulls).
func pathTryDefault(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("path::try_default", "2", len(args))
	}
	if args[0].IsNull() {
		return args[1], nil
	}
	return args[0], nil
}
