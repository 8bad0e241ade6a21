package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/tremor-rs/tremor/pkg/types"
)

// preProcess splits a raw byte stream into discrete event frames — spec
// §6's `--pre-processor P` / `--post-processor P`. "lines" is
// newline-delimited framing (the common case for piping ndjson through a
// Unix pipeline); "none" treats the whole input as a single frame.
func preProcess(r io.Reader, name string) ([][]byte, error) {
	switch name {
	case "", "lines":
		var frames [][]byte
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				continue
			}
			frames = append(frames, append([]byte(nil), line...))
		}
		return frames, sc.Err()
	case "none":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return [][]byte{b}, nil
	default:
		return nil, fmt.Errorf("unknown pre-processor %q (want lines|none)", name)
	}
}

// postProcess re-frames an encoded event before it is written out, the
// inverse of preProcess.
func postProcess(w io.Writer, name string, frame []byte) error {
	switch name {
	case "", "lines":
		_, err := fmt.Fprintln(w, string(frame))
		return err
	case "none":
		_, err := w.Write(frame)
		return err
	default:
		return fmt.Errorf("unknown post-processor %q (want lines|none)", name)
	}
}

// decode parses one frame with the named codec into a [types.Value]. Only
// "json" is a real codec; "string" treats the whole frame as a tremor
// string value, useful for scripts that parse their own framing with
// string:: intrinsics.
func decode(codec string, frame []byte) (types.Value, error) {
	switch codec {
	case "", "json":
		var v interface{}
		if err := json.Unmarshal(frame, &v); err != nil {
			return types.Null, fmt.Errorf("decoding json: %w", err)
		}
		return jsonToValue(v), nil
	case "string":
		return types.String(string(frame)), nil
	default:
		return types.Null, fmt.Errorf("unknown decoder %q (want json|string)", codec)
	}
}

// encode renders a [types.Value] back to bytes with the named codec.
func encode(codec string, v types.Value) ([]byte, error) {
	switch codec {
	case "", "json":
		b, err := json.Marshal(valueToJSON(v))
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return b, nil
	case "string":
		return []byte(v.String()), nil
	default:
		return nil, fmt.Errorf("unknown encoder %q (want json|string)", codec)
	}
}

// valueToJSON/jsonToValue are the same conversion pkg/wasmfn and
// pkg/jsfn each carry their own copy of, kept independent of pkg/stdlib's
// unexported equivalents so this CLI package has no reason to import the
// standard library registry just to move values across the JSON boundary.
func valueToJSON(v types.Value) interface{} {
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
			out[i] = valueToJSON(e)
		}
		return out
	case types.KindRecord:
		rec, _ := v.AsRecord()
		out := make(map[string]interface{}, rec.Len())
		for _, k := range rec.Keys() {
			val, _ := rec.Get(k)
			out[k] = valueToJSON(val)
		}
		return out
	default:
		return nil
	}
}

func jsonToValue(v interface{}) types.Value {
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
			out[i] = jsonToValue(e)
		}
		return types.Array(out)
	case map[string]interface{}:
		rec := types.NewRecord()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rec.Set(k, jsonToValue(t[k]))
		}
		return types.RecordValue(rec)
	default:
		return types.Null
	}
}
