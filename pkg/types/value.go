package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind identifies which alternative of the tagged [Value] union is active.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindArray
	KindRecord
)

// String returns the tremor-script type name, the same spelling the
// `type::*` intrinsics and diagnostics use.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is the uniform tagged value every slot in the event envelope, every
// expression result and every aggregator state is made of (spec §3).
//
// Value is immutable by convention: every operation that "changes" a Value
// returns a new one, sharing untouched substructure with the original
// (copy-on-write). Two in-flight events must never observe each other's
// mutations through a shared Value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	bin  []byte
	arr  []Value
	rec  *Record
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Binary(b []byte) Value { return Value{kind: KindBinary, bin: b} }

// Array constructs an array value. The slice is taken by reference; callers
// must not mutate it afterwards (construct a fresh slice if needed).
func Array(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// RecordValue wraps an already-built [Record] as a Value.
func RecordValue(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindRecord, rec: r}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsBinary() bool { return v.kind == KindBinary }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsRecord() bool { return v.kind == KindRecord }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == KindString }
func (v Value) AsBinary() ([]byte, bool)   { return v.bin, v.kind == KindBinary }
func (v Value) AsArray() ([]Value, bool)   { return v.arr, v.kind == KindArray }
func (v Value) AsRecord() (*Record, bool)  { return v.rec, v.kind == KindRecord }

// Number returns the value widened to float64 for arithmetic that accepts
// either representation (e.g. math:: functions). ok is false for non-numbers.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Truthy implements tremor-script's truthiness used by guards and `where`/
// `having` clauses: only `true` is truthy; everything else (including 0,
// "", [] and absent) is not. tremor-script does not coerce values into
// booleans implicitly outside of these evaluation points.
func (v Value) Truthy() bool {
	return v.kind == KindBool && v.b
}

// Equal implements the structural equality used by `==`/`!=` and by match
// literal patterns: arrays compare element-by-element and order-sensitively,
// records compare by key set regardless of insertion order, and numeric
// values compare across the int/float boundary (spec §3, grounded on
// val_eq in original_source/tremor-script/src/interpreter.rs).
func (v Value) Equal(o Value) bool {
	switch {
	case v.kind == KindNull && o.kind == KindNull:
		return true
	case v.kind == KindBool && o.kind == KindBool:
		return v.b == o.b
	case v.IsString() && o.IsString():
		return v.s == o.s
	case v.IsBinary() && o.IsBinary():
		return string(v.bin) == string(o.bin)
	case v.IsString() && o.IsBinary():
		return v.s == string(o.bin)
	case v.IsBinary() && o.IsString():
		return string(v.bin) == o.s
	case v.IsArray() && o.IsArray():
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case v.IsRecord() && o.IsRecord():
		if v.rec.Len() != o.rec.Len() {
			return false
		}
		for _, k := range v.rec.Keys() {
			lv, _ := v.rec.Get(k)
			rv, ok := o.rec.Get(k)
			if !ok || !lv.Equal(rv) {
				return false
			}
		}
		return true
	default:
		if ln, lok := v.Number(); lok {
			if rn, rok := o.Number(); rok {
				return ln == rn
			}
		}
		return false
	}
}

// Clone deep-clones a Value. Arrays and records get fresh backing storage;
// leaves (strings, numbers, binary) are copied by value or by a defensive
// byte-slice copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBinary:
		b := make([]byte, len(v.bin))
		copy(b, v.bin)
		return Binary(b)
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Clone()
		}
		return Array(out)
	case KindRecord:
		return RecordValue(v.rec.Clone())
	default:
		return v
	}
}

// CodepointLen returns the UTF-8 codepoint count (string::len).
func (v Value) CodepointLen() int {
	if !v.IsString() {
		return 0
	}
	return utf8.RuneCountInString(v.s)
}

// ByteLen returns the UTF-8 byte count (string::bytes).
func (v Value) ByteLen() int {
	if !v.IsString() {
		return 0
	}
	return len(v.s)
}

// String renders a Value for debugging and for string+string concatenation
// where the RHS/LHS is not already a string.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindBinary:
		return string(v.bin)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindRecord:
		parts := make([]string, 0, v.rec.Len())
		for _, k := range v.rec.Keys() {
			val, _ := v.rec.Get(k)
			parts = append(parts, fmt.Sprintf("%q: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", f), "0"), ".")
}

// Less orders two Values for sort/compare operators (<, <=, >, >=). Only
// defined between two numbers, two strings or two binaries; callers must
// check Kind compatibility first (mixed-kind comparison is a Type error).
func Less(a, b Value) (bool, bool) {
	switch {
	case a.IsString() && b.IsString():
		return a.s < b.s, true
	case a.IsBinary() && b.IsBinary():
		return string(a.bin) < string(b.bin), true
	default:
		if an, aok := a.Number(); aok {
			if bn, bok := b.Number(); bok {
				return an < bn, true
			}
		}
		return false, false
	}
}

// Coalesce removes null entries from an array, preserving order (array::coalesce).
func Coalesce(items []Value) []Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		if !it.IsNull() {
			out = append(out, it)
		}
	}
	return out
}

// Record is an insertion-ordered string-keyed map. Duplicate keys on
// construction are last-write-wins but keep the position of their first
// occurrence (spec §3 invariant iii).
type Record struct {
	keys []string
	pos  map[string]int
	vals []Value
}

func NewRecord() *Record {
	return &Record{pos: make(map[string]int)}
}

// RecordFromPairs builds a Record from alternating key/value pairs in
// source order, applying last-write-wins / keep-first-position semantics.
func RecordFromPairs(keys []string, vals []Value) *Record {
	r := NewRecord()
	for i, k := range keys {
		r.Set(k, vals[i])
	}
	return r
}

func (r *Record) Len() int { return len(r.keys) }

func (r *Record) Get(key string) (Value, bool) {
	i, ok := r.pos[key]
	if !ok {
		return Null, false
	}
	return r.vals[i], true
}

// Keys returns keys in first-seen insertion order (spec §3 invariant iii,
// exercised directly by the record::keys intrinsic).
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) Values() []Value {
	out := make([]Value, len(r.vals))
	copy(out, r.vals)
	return out
}

// Set inserts or updates key in place, keeping first-seen position on
// re-assignment. Mutates the receiver; callers needing copy-on-write
// semantics should call Clone first (see [Record.WithSet]).
func (r *Record) Set(key string, v Value) {
	if i, ok := r.pos[key]; ok {
		r.vals[i] = v
		return
	}
	r.pos[key] = len(r.keys)
	r.keys = append(r.keys, key)
	r.vals = append(r.vals, v)
}

func (r *Record) Remove(key string) {
	i, ok := r.pos[key]
	if !ok {
		return
	}
	r.keys = append(r.keys[:i], r.keys[i+1:]...)
	r.vals = append(r.vals[:i], r.vals[i+1:]...)
	delete(r.pos, key)
	for k, p := range r.pos {
		if p > i {
			r.pos[k] = p - 1
		}
	}
}

func (r *Record) Contains(key string) bool {
	_, ok := r.pos[key]
	return ok
}

// Clone deep-clones the record and every contained value.
func (r *Record) Clone() *Record {
	out := NewRecord()
	for i, k := range r.keys {
		out.Set(k, r.vals[i].Clone())
	}
	return out
}

// WithSet returns a new Record with key set to v, sharing the receiver's
// other entries (shallow copy-on-write at this level; the replaced value
// itself is not deep-cloned, matching copy-on-write-at-each-level from
// spec §9 design notes).
func (r *Record) WithSet(key string, v Value) *Record {
	out := NewRecord()
	for i, k := range r.keys {
		out.Set(k, r.vals[i])
	}
	out.Set(key, v)
	return out
}

func (r *Record) WithRemove(key string) *Record {
	out := NewRecord()
	for i, k := range r.keys {
		if k == key {
			continue
		}
		out.Set(k, r.vals[i])
	}
	return out
}

// SortedKeys is a convenience for deterministic diagnostics / debug dumps;
// tremor-script semantics never depend on sorted order.
func (r *Record) SortedKeys() []string {
	out := r.Keys()
	sort.Strings(out)
	return out
}
