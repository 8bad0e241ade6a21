package stdlib

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// arrayModule implements spec §4.D's array:: module, grounded on the
// teacher's array-function group (pkg/evaluator/functions.go: append,
// reverse, distinct, zip) narrowed to tremor-script's actual catalogue.
var arrayModule = map[string]eval.Func{
	"len":       arrayLen,
	"is_empty":  arrayIsEmpty,
	"contains":  arrayContains,
	"push":      arrayPush,
	"zip":       arrayZip,
	"unzip":     arrayUnzip,
	"flatten":   arrayFlatten,
	"coalesce":  arrayCoalesce,
	"join":      arrayJoin,
}

func asArrayArg(fn string, args []types.Value, i int) ([]types.Value, error) {
	if i >= len(args) || !args[i].IsArray() {
		return nil, typeErrorf("%s: argument %d must be an array", fn, i+1)
	}
	arr, _ := args[i].AsArray()
	return arr, nil
}

func arrayLen(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("array::len", "1", len(args))
	}
	arr, err := asArrayArg("array::len", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Int(int64(len(arr))), nil
}

func arrayIsEmpty(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("array::is_empty", "1", len(args))
	}
	arr, err := asArrayArg("array::is_empty", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(len(arr) == 0), nil
}

func arrayContains(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("array::contains", "2", len(args))
	}
	arr, err := asArrayArg("array::contains", args, 0)
	if err != nil {
		return types.Null, err
	}
	for _, v := range arr {
		if v.Equal(args[1]) {
			return types.Bool(true), nil
		}
	}
	return types.Bool(false), nil
}

func arrayPush(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("array::push", "2", len(args))
	}
	arr, err := asArrayArg("array::push", args, 0)
	if err != nil {
		return types.Null, err
	}
	out := append(append([]types.Value{}, arr...), args[1])
	return types.Array(out), nil
}

// arrayZip pairs up elements of N arrays positionally, stopping at the
// shortest (array::zip([1,2,3],["a","b"]) == [[1,"a"],[2,"b"]]).
func arrayZip(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < 2 {
		return types.Null, arityError("array::zip", "at least 2", len(args))
	}
	arrs := make([][]types.Value, len(args))
	min := -1
	for i := range args {
		arr, err := asArrayArg("array::zip", args, i)
		if err != nil {
			return types.Null, err
		}
		arrs[i] = arr
		if min == -1 || len(arr) < min {
			min = len(arr)
		}
	}
	out := make([]types.Value, min)
	for i := 0; i < min; i++ {
		row := make([]types.Value, len(arrs))
		for j, arr := range arrs {
			row[j] = arr[i]
		}
		out[i] = types.Array(row)
	}
	return types.Array(out), nil
}

// arrayUnzip is zip's inverse: an array of same-length rows becomes that
// many columns (array::unzip([[1,"a"],[2,"b"]]) == [[1,2],["a","b"]]).
func arrayUnzip(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("array::unzip", "1", len(args))
	}
	rows, err := asArrayArg("array::unzip", args, 0)
	if err != nil {
		return types.Null, err
	}
	if len(rows) == 0 {
		return types.Array(nil), nil
	}
	first, ok := rows[0].AsArray()
	if !ok {
		return types.Null, typeErrorf("array::unzip: elements must be arrays")
	}
	cols := make([][]types.Value, len(first))
	for _, row := range rows {
		r, ok := row.AsArray()
		if !ok || len(r) != len(first) {
			return types.Null, typeErrorf("array::unzip: all rows must be arrays of equal length")
		}
		for i, v := range r {
			cols[i] = append(cols[i], v)
		}
	}
	out := make([]types.Value, len(cols))
	for i, c := range cols {
		out[i] = types.Array(c)
	}
	return types.Array(out), nil
}

func arrayFlatten(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("array::flatten", "1", len(args))
	}
	arr, err := asArrayArg("array::flatten", args, 0)
	if err != nil {
		return types.Null, err
	}
	var out []types.Value
	for _, v := range arr {
		if inner, ok := v.AsArray(); ok {
			out = append(out, inner...)
		} else {
			out = append(out, v)
		}
	}
	return types.Array(out), nil
}

func arrayCoalesce(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("array::coalesce", "1", len(args))
	}
	arr, err := asArrayArg("array::coalesce", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Array(types.Coalesce(arr)), nil
}

func arrayJoin(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("array::join", "2", len(args))
	}
	arr, err := asArrayArg("array::join", args, 0)
	if err != nil {
		return types.Null, err
	}
	sep, ok := args[1].AsString()
	if !ok {
		return types.Null, typeErrorf("array::join: separator must be a string")
	}
	var b []byte
	for i, v := range arr {
		if i > 0 {
			b = append(b, sep...)
		}
		b = append(b, v.String()...)
	}
	return types.String(string(b)), nil
}
