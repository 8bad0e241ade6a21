package stdlib

import (
	"context"
	"hash/fnv"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// chashModule implements spec §4.D's chash:: module: Lamping & Veach's
// jump consistent hash ("A Fast, Minimal Memory, Consistent Hash
// Algorithm", 2014), the standard algorithm every `jump`-named consistent
// hash library implements — there being no third-party implementation in
// the retrieved example pack, this is transcribed directly from the paper
// (see DESIGN.md) rather than hand-rolling a competing scheme.
var chashModule = map[string]eval.Func{
	"jump":            chashJump,
	"jump_with_keys":  chashJumpWithKeys,
	"sorted_serialize": chashSortedSerialize,
}

// jumpConsistentHash is Figure 1 of the paper, unchanged: num_buckets
// consistent hashing in O(ln(num_buckets)) with no storage overhead.
func jumpConsistentHash(key uint64, numBuckets int64) int64 {
	var b, j int64 = -1, 0
	for j < numBuckets {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}
	return b
}

// hashKey maps a script-level key Value to the uint64 jumpConsistentHash
// wants. Strings hash with FNV-1a 64 (hash/fnv, stdlib); integers pass
// through their bit pattern directly, keeping chash::jump(0, n) == 0 for
// every n the way the paper's worked examples do.
func hashKey(v types.Value) (uint64, error) {
	switch {
	case v.IsString():
		s, _ := v.AsString()
		h := fnv.New64a()
		h.Write([]byte(s))
		return h.Sum64(), nil
	case v.IsInt():
		i, _ := v.AsInt()
		return uint64(i), nil
	default:
		return 0, typeErrorf("chash: key must be a string or integer, got %s", v.Kind())
	}
}

func chashJump(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("chash::jump", "2", len(args))
	}
	key, err := hashKey(args[0])
	if err != nil {
		return types.Null, err
	}
	n, ok := args[1].AsInt()
	if !ok || n <= 0 {
		return types.Null, typeErrorf("chash::jump: bucket count must be a positive integer")
	}
	return types.Int(jumpConsistentHash(key, n)), nil
}

// chashJumpWithKeys picks a bucket for key distinct from the excluded
// buckets in excl, by salting the key's hash with each excluded bucket
// index until jumpConsistentHash lands outside excl — the generalisation
// used to place N replicas of the same key on N distinct buckets (spec
// §4.D names it jump_with_keys without further detail; see DESIGN.md for
// this call signature's derivation).
func chashJumpWithKeys(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < 3 {
		return types.Null, arityError("chash::jump_with_keys", "at least 3 (excluded buckets..., key, bucket count)", len(args))
	}
	n, ok := args[len(args)-1].AsInt()
	if !ok || n <= 0 {
		return types.Null, typeErrorf("chash::jump_with_keys: bucket count must be a positive integer")
	}
	key, err := hashKey(args[len(args)-2])
	if err != nil {
		return types.Null, err
	}
	excluded := make(map[int64]bool, len(args)-2)
	for _, a := range args[:len(args)-2] {
		e, ok := a.AsInt()
		if !ok {
			return types.Null, typeErrorf("chash::jump_with_keys: excluded bucket arguments must be integers")
		}
		excluded[e] = true
	}
	salt := uint64(0)
	for attempt := int64(0); attempt < n; attempt++ {
		candidate := jumpConsistentHash(key+salt, n)
		if !excluded[candidate] {
			return types.Int(candidate), nil
		}
		salt++
	}
	return types.Null, typeErrorf("chash::jump_with_keys: no bucket available outside the excluded set")
}

// chashSortedSerialize renders a record's keys/values as a deterministic
// "k=v&k=v" string sorted by key, the stable form chash implementations
// hash over when building ring membership from a record of node weights.
func chashSortedSerialize(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("chash::sorted_serialize", "1", len(args))
	}
	rec, err := asRecordArg("chash::sorted_serialize", args, 0)
	if err != nil {
		return types.Null, err
	}
	keys := rec.SortedKeys()
	var b []byte
	for i, k := range keys {
		if i > 0 {
			b = append(b, '&')
		}
		v, _ := rec.Get(k)
		b = append(b, k...)
		b = append(b, '=')
		b = append(b, v.String()...)
	}
	return types.String(string(b)), nil
}
