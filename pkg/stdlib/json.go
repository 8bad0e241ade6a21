package stdlib

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

var jsonModule = map[string]eval.Func{
	"encode":        jsonEncode,
	"encode_pretty": jsonEncodePretty,
	"decode":        jsonDecode,
}

func jsonEncode(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("json::encode", "1", len(args))
	}
	b, err := json.Marshal(valueToGo(args[0]))
	if err != nil {
		return types.Null, typeErrorf("json::encode: %v", err)
	}
	return types.String(string(b)), nil
}

func jsonEncodePretty(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("json::encode_pretty", "1", len(args))
	}
	b, err := json.MarshalIndent(valueToGo(args[0]), "", "  ")
	if err != nil {
		return types.Null, typeErrorf("json::encode_pretty: %v", err)
	}
	return types.String(string(b)), nil
}

func jsonDecode(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("json::decode", "1", len(args))
	}
	s, err := asStringArg("json::decode", args, 0)
	if err != nil {
		return types.Null, err
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return types.Null, typeErrorf("json::decode: %v", err)
	}
	return goToValue(v), nil
}

// valueToGo converts a [types.Value] into the interface{} shape
// encoding/json knows how to marshal, preserving record key order
// (encoding/json always sorts map[string]any keys alphabetically, so
// records are wrapped in orderedRecord, whose MarshalJSON writes keys in
// insertion order — spec §3 invariant iii).
func valueToGo(v types.Value) interface{} {
	switch v.Kind() {
	case types.KindNull:
		return nil
	case types.KindBool:
		b, _ := v.AsBool()
		return b
	case types.KindInt:
		i, _ := v.AsInt()
		return i
	case types.KindFloat:
		f, _ := v.AsFloat()
		return f
	case types.KindString:
		s, _ := v.AsString()
		return s
	case types.KindBinary:
		b, _ := v.AsBinary()
		return string(b)
	case types.KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, e := range arr {
			out[i] = valueToGo(e)
		}
		return out
	case types.KindRecord:
		return orderedRecord{v}
	default:
		return nil
	}
}

// orderedRecord marshals a record's keys in insertion order by implementing
// json.Marshaler directly, avoiding Go's alphabetical map-key sort.
type orderedRecord struct{ v types.Value }

func (o orderedRecord) MarshalJSON() ([]byte, error) {
	rec, _ := o.v.AsRecord()
	buf := []byte{'{'}
	for i, k := range rec.Keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		val, _ := rec.Get(k)
		vb, err := json.Marshal(valueToGo(val))
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// goToValue converts encoding/json's decoded interface{} tree back into a
// [types.Value]. json.Unmarshal into interface{} always yields
// map[string]interface{}, which is unordered — decoded records therefore
// come back key-sorted (json::decode does not round-trip insertion order;
// only literal record construction does, per spec §3 invariant iii).
func goToValue(v interface{}) types.Value {
	switch t := v.(type) {
	case nil:
		return types.Null
	case bool:
		return types.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return types.Int(int64(t))
		}
		return types.Float(t)
	case string:
		return types.String(t)
	case []interface{}:
		out := make([]types.Value, len(t))
		for i, e := range t {
			out[i] = goToValue(e)
		}
		return types.Array(out)
	case map[string]interface{}:
		rec := types.NewRecord()
		for _, k := range sortedKeys(t) {
			rec.Set(k, goToValue(t[k]))
		}
		return types.RecordValue(rec)
	default:
		return types.Null
	}
}

func sortedKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
