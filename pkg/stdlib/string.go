package stdlib

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// stringModule implements spec §4.D's string:: module. len counts
// codepoints, bytes counts UTF-8 bytes (spec §8's UTF-8 length invariant);
// format implements `{}`-placeholder substitution with `{{`/`}}` escaping
// (spec §8 scenario 5).
var stringModule = map[string]eval.Func{
	"format":          stringFormat,
	"len":             stringLen,
	"bytes":           stringBytes,
	"replace":         stringReplace,
	"trim":            stringTrim,
	"trim_start":      stringTrimStart,
	"trim_end":        stringTrimEnd,
	"lowercase":       stringLowercase,
	"uppercase":       stringUppercase,
	"capitalize":      stringCapitalize,
	"substr":          stringSubstr,
	"split":           stringSplit,
	"contains":        stringContains,
	"from_utf8_lossy": stringFromUTF8Lossy,
	"into_binary":     stringIntoBinary,
}

func asStringArg(fn string, args []types.Value, i int) (string, error) {
	if i >= len(args) || !args[i].IsString() {
		return "", typeErrorf("%s: argument %d must be a string", fn, i+1)
	}
	s, _ := args[i].AsString()
	return s, nil
}

// stringFormat substitutes `{}` placeholders left to right with args[1:]'s
// String() rendering; `{{` and `}}` escape to literal braces. Grounded on
// spec §8 scenario 5: string::format("{{ hi {} }}", "x") == "{ hi x }".
func stringFormat(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < 1 {
		return types.Null, arityError("string::format", "at least 1", len(args))
	}
	tmpl, err := asStringArg("string::format", args, 0)
	if err != nil {
		return types.Null, err
	}
	vals := args[1:]
	var b strings.Builder
	next := 0
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			if next >= len(vals) {
				return types.Null, typeErrorf("string::format: not enough arguments for placeholder %d", next+1)
			}
			b.WriteString(vals[next].String())
			next++
			i++
		default:
			b.WriteByte(c)
		}
	}
	return types.String(b.String()), nil
}

func stringLen(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("string::len", "1", len(args))
	}
	s, err := asStringArg("string::len", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Int(int64(utf8.RuneCountInString(s))), nil
}

func stringBytes(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("string::bytes", "1", len(args))
	}
	s, err := asStringArg("string::bytes", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Int(int64(len(s))), nil
}

func stringReplace(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 3 {
		return types.Null, arityError("string::replace", "3", len(args))
	}
	s, err := asStringArg("string::replace", args, 0)
	if err != nil {
		return types.Null, err
	}
	from, err := asStringArg("string::replace", args, 1)
	if err != nil {
		return types.Null, err
	}
	to, err := asStringArg("string::replace", args, 2)
	if err != nil {
		return types.Null, err
	}
	return types.String(strings.ReplaceAll(s, from, to)), nil
}

func stringTrim(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::trim", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.String(strings.TrimSpace(s)), nil
}

func stringTrimStart(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::trim_start", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.String(strings.TrimLeftFunc(s, unicode.IsSpace)), nil
}

func stringTrimEnd(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::trim_end", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.String(strings.TrimRightFunc(s, unicode.IsSpace)), nil
}

func stringLowercase(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::lowercase", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.String(strings.ToLower(s)), nil
}

func stringUppercase(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::uppercase", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.String(strings.ToUpper(s)), nil
}

func stringCapitalize(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::capitalize", args, 0)
	if err != nil {
		return types.Null, err
	}
	if s == "" {
		return types.String(s), nil
	}
	r, size := utf8.DecodeRuneInString(s)
	return types.String(string(unicode.ToUpper(r)) + s[size:]), nil
}

// stringSubstr slices by codepoint offsets (end optional = to end of
// string), matching string::len's codepoint counting.
func stringSubstr(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return types.Null, arityError("string::substr", "2 or 3", len(args))
	}
	s, err := asStringArg("string::substr", args, 0)
	if err != nil {
		return types.Null, err
	}
	if !args[1].IsInt() {
		return types.Null, typeErrorf("string::substr: start must be an integer")
	}
	startI, _ := args[1].AsInt()
	runes := []rune(s)
	end := int64(len(runes))
	if len(args) == 3 {
		if !args[2].IsInt() {
			return types.Null, typeErrorf("string::substr: end must be an integer")
		}
		end, _ = args[2].AsInt()
	}
	if startI < 0 || end > int64(len(runes)) || startI > end {
		return types.Null, typeErrorf("string::substr: range [%d:%d] out of bounds for a %d-codepoint string", startI, end, len(runes))
	}
	return types.String(string(runes[startI:end])), nil
}

func stringSplit(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("string::split", "2", len(args))
	}
	s, err := asStringArg("string::split", args, 0)
	if err != nil {
		return types.Null, err
	}
	sep, err := asStringArg("string::split", args, 1)
	if err != nil {
		return types.Null, err
	}
	parts := strings.Split(s, sep)
	out := make([]types.Value, len(parts))
	for i, p := range parts {
		out[i] = types.String(p)
	}
	return types.Array(out), nil
}

func stringContains(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("string::contains", "2", len(args))
	}
	s, err := asStringArg("string::contains", args, 0)
	if err != nil {
		return types.Null, err
	}
	sub, err := asStringArg("string::contains", args, 1)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(strings.Contains(s, sub)), nil
}

func stringFromUTF8Lossy(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 || !args[0].IsBinary() {
		return types.Null, typeErrorf("string::from_utf8_lossy: argument 1 must be binary")
	}
	b, _ := args[0].AsBinary()
	return types.String(strings.ToValidUTF8(string(b), "�")), nil
}

func stringIntoBinary(ctx context.Context, args []types.Value) (types.Value, error) {
	s, err := asStringArg("string::into_binary", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Binary([]byte(s)), nil
}
