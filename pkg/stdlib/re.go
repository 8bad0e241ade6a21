package stdlib

import (
	"context"
	"regexp"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// reModule implements spec §4.D's re:: module with Go's RE2 engine
// (regexp), grounded on the teacher's fn_regex.go which compiles patterns
// through the same package.
var reModule = map[string]eval.Func{
	"replace":     reReplace,
	"replace_all": reReplaceAll,
	"is_match":    reIsMatch,
	"split":       reSplit,
}

func compilePattern(fn, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, typeErrorf("%s: invalid pattern: %v", fn, err)
	}
	return re, nil
}

func reReplace(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 3 {
		return types.Null, arityError("re::replace", "3", len(args))
	}
	s, err := asStringArg("re::replace", args, 0)
	if err != nil {
		return types.Null, err
	}
	pattern, err := asStringArg("re::replace", args, 1)
	if err != nil {
		return types.Null, err
	}
	repl, err := asStringArg("re::replace", args, 2)
	if err != nil {
		return types.Null, err
	}
	re, err := compilePattern("re::replace", pattern)
	if err != nil {
		return types.Null, err
	}
	replaced := false
	out := re.ReplaceAllStringFunc(s, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return repl
	})
	return types.String(out), nil
}

func reReplaceAll(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 3 {
		return types.Null, arityError("re::replace_all", "3", len(args))
	}
	s, err := asStringArg("re::replace_all", args, 0)
	if err != nil {
		return types.Null, err
	}
	pattern, err := asStringArg("re::replace_all", args, 1)
	if err != nil {
		return types.Null, err
	}
	repl, err := asStringArg("re::replace_all", args, 2)
	if err != nil {
		return types.Null, err
	}
	re, err := compilePattern("re::replace_all", pattern)
	if err != nil {
		return types.Null, err
	}
	return types.String(re.ReplaceAllString(s, repl)), nil
}

func reIsMatch(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("re::is_match", "2", len(args))
	}
	s, err := asStringArg("re::is_match", args, 0)
	if err != nil {
		return types.Null, err
	}
	pattern, err := asStringArg("re::is_match", args, 1)
	if err != nil {
		return types.Null, err
	}
	re, err := compilePattern("re::is_match", pattern)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(re.MatchString(s)), nil
}

func reSplit(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("re::split", "2", len(args))
	}
	s, err := asStringArg("re::split", args, 0)
	if err != nil {
		return types.Null, err
	}
	pattern, err := asStringArg("re::split", args, 1)
	if err != nil {
		return types.Null, err
	}
	re, err := compilePattern("re::split", pattern)
	if err != nil {
		return types.Null, err
	}
	parts := re.Split(s, -1)
	out := make([]types.Value, len(parts))
	for i, p := range parts {
		out[i] = types.String(p)
	}
	return types.Array(out), nil
}
