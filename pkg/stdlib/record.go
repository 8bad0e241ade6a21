package stdlib

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// recordModule implements spec §4.D's record:: module. keys/values/
// to_array/from_array are grounded on §8's record-order invariant: keys
// always come back in first-insertion order.
var recordModule = map[string]eval.Func{
	"len":       recordLen,
	"is_empty":  recordIsEmpty,
	"contains":  recordContains,
	"keys":      recordKeys,
	"values":    recordValues,
	"to_array":  recordToArray,
	"from_array": recordFromArray,
	"extract":   recordExtract,
	"combine":   recordCombine,
	"rename":    recordRename,
}

func asRecordArg(fn string, args []types.Value, i int) (*types.Record, error) {
	if i >= len(args) || !args[i].IsRecord() {
		return nil, typeErrorf("%s: argument %d must be a record", fn, i+1)
	}
	rec, _ := args[i].AsRecord()
	return rec, nil
}

func recordLen(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("record::len", "1", len(args))
	}
	rec, err := asRecordArg("record::len", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Int(int64(rec.Len())), nil
}

func recordIsEmpty(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("record::is_empty", "1", len(args))
	}
	rec, err := asRecordArg("record::is_empty", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(rec.Len() == 0), nil
}

func recordContains(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("record::contains", "2", len(args))
	}
	rec, err := asRecordArg("record::contains", args, 0)
	if err != nil {
		return types.Null, err
	}
	key, ok := args[1].AsString()
	if !ok {
		return types.Null, typeErrorf("record::contains: key must be a string")
	}
	return types.Bool(rec.Contains(key)), nil
}

// recordKeys exercises spec §8's record-order invariant directly: keys come
// back in first-insertion order, never sorted.
func recordKeys(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("record::keys", "1", len(args))
	}
	rec, err := asRecordArg("record::keys", args, 0)
	if err != nil {
		return types.Null, err
	}
	keys := rec.Keys()
	out := make([]types.Value, len(keys))
	for i, k := range keys {
		out[i] = types.String(k)
	}
	return types.Array(out), nil
}

func recordValues(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("record::values", "1", len(args))
	}
	rec, err := asRecordArg("record::values", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Array(rec.Values()), nil
}

// recordToArray turns a record into an array of [key, value] pairs, in
// insertion order (record::from_array is its inverse).
func recordToArray(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("record::to_array", "1", len(args))
	}
	rec, err := asRecordArg("record::to_array", args, 0)
	if err != nil {
		return types.Null, err
	}
	keys := rec.Keys()
	out := make([]types.Value, len(keys))
	for i, k := range keys {
		v, _ := rec.Get(k)
		out[i] = types.Array([]types.Value{types.String(k), v})
	}
	return types.Array(out), nil
}

func recordFromArray(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("record::from_array", "1", len(args))
	}
	pairs, err := asArrayArg("record::from_array", args, 0)
	if err != nil {
		return types.Null, err
	}
	rec := types.NewRecord()
	for _, p := range pairs {
		pair, ok := p.AsArray()
		if !ok || len(pair) != 2 {
			return types.Null, typeErrorf("record::from_array: elements must be [key, value] pairs")
		}
		key, ok := pair[0].AsString()
		if !ok {
			return types.Null, typeErrorf("record::from_array: key must be a string")
		}
		rec.Set(key, pair[1])
	}
	return types.RecordValue(rec), nil
}

// recordExtract projects a record down to a chosen key subset, dropping
// keys that don't exist rather than erroring (spec §4.D does not specify
// strictness here; this matches record::combine/rename's lenient style).
func recordExtract(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("record::extract", "2", len(args))
	}
	rec, err := asRecordArg("record::extract", args, 0)
	if err != nil {
		return types.Null, err
	}
	keysArr, err := asArrayArg("record::extract", args, 1)
	if err != nil {
		return types.Null, err
	}
	out := types.NewRecord()
	for _, kv := range keysArr {
		key, ok := kv.AsString()
		if !ok {
			continue
		}
		if v, exists := rec.Get(key); exists {
			out.Set(key, v)
		}
	}
	return types.RecordValue(out), nil
}

// recordCombine is a shallow right-wins merge of N records, preserving each
// key's first-seen position across the whole call (distinct from
// patch's merge, which recurses into nested records).
func recordCombine(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < 1 {
		return types.Null, arityError("record::combine", "at least 1", len(args))
	}
	out := types.NewRecord()
	for i := range args {
		rec, err := asRecordArg("record::combine", args, i)
		if err != nil {
			return types.Null, err
		}
		for _, k := range rec.Keys() {
			v, _ := rec.Get(k)
			out.Set(k, v)
		}
	}
	return types.RecordValue(out), nil
}

// recordRename applies a record of old-key -> new-key renames, keeping
// every key's original insertion position.
func recordRename(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("record::rename", "2", len(args))
	}
	rec, err := asRecordArg("record::rename", args, 0)
	if err != nil {
		return types.Null, err
	}
	renames, err := asRecordArg("record::rename", args, 1)
	if err != nil {
		return types.Null, err
	}
	out := types.NewRecord()
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		newKey := k
		if nv, exists := renames.Get(k); exists {
			if ns, ok := nv.AsString(); ok {
				newKey = ns
			}
		}
		out.Set(newKey, v)
	}
	return types.RecordValue(out), nil
}
