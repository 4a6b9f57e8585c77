package fobj

import (
	"strings"

	"github.com/fobjgo/fobj/internal/ftutil"
)

// KV is a single rendering argument: a key paired with a tagged value.
// Used both for an Err's stored attribute list and for PrintKV's sorted
// argument slice (spec.md §4.H).
type KV struct {
	Key   string
	Value ftutil.Arg
}

// renderTemplate is the one template engine shared by error-message
// interpolation and PrintKV (spec.md §4.H): `{ident}` or `{ident:spec}`
// is replaced by lookup(ident) rendered with spec; `{{` emits a literal
// `{`; a `{` with no closing `}` and idents/specs over 31 bytes are
// fatal. A `}` outside a placeholder is copied through verbatim.
// missingFatal distinguishes the two callers: an error template treats a
// missing ident as a programmer error, PrintKV logs a warning and
// substitutes NULL instead.
func renderTemplate(buf *ftutil.Buf, format string, lookup func(ident string) (ftutil.Arg, bool), missingFatal bool) {
	n := len(format)
	for i := 0; i < n; {
		c := format[i]
		if c != '{' {
			buf.Cat1(c)
			i++
			continue
		}
		if i+1 < n && format[i+1] == '{' {
			buf.Cat1('{')
			i += 2
			continue
		}

		j := i + 1
		for j < n && format[j] != '}' {
			j++
		}
		ftutil.Assert(j < n, "fobj: unbalanced braces in format template %q", format)

		token := format[i+1 : j]
		ident, spec := token, ""
		if idx := strings.IndexByte(token, ':'); idx >= 0 {
			ident, spec = token[:idx], token[idx+1:]
		}
		ftutil.Assert(len(ident) <= 31, "fobj: format template ident %q exceeds 31 characters", ident)
		ftutil.Assert(len(spec) <= 31, "fobj: format template spec %q exceeds 31 characters", spec)

		if val, ok := lookup(ident); ok {
			writeArg(buf, val, spec)
		} else if missingFatal {
			ftutil.Assert(false, "fobj: format template references unknown ident %q", ident)
		} else {
			log.Warn().Str("ident", ident).Msg("fobj: printkv: ident not found")
			buf.Cat("NULL")
		}
		i = j + 1
	}
}

// writeArg renders one tagged argument value into buf, dispatching
// object-typed arguments through fobjFormat (falling back to fobjRepr)
// the same way a direct Dispatch caller would.
func writeArg(buf *ftutil.Buf, a ftutil.Arg, spec string) {
	switch a.Type {
	case ftutil.ArgInt:
		formatRawInt(buf, a.I, spec)
	case ftutil.ArgUint:
		formatRawUint(buf, a.U, spec)
	case ftutil.ArgFloat:
		formatRawFloat(buf, a.F, spec)
	case ftutil.ArgString:
		if spec == "q" {
			escapeInto(buf, []byte(a.S))
		} else {
			buf.Cat(a.S)
		}
	case ftutil.ArgBool:
		letter := byte('b')
		if spec != "" {
			letter = spec[len(spec)-1]
		}
		buf.Cat(boolWord(letter, a.B))
	case ftutil.ArgObject:
		writeObjectArg(buf, a.Object, spec)
	default:
		ftutil.Assert(false, "fobj: unknown argument type char %q", byte(a.Type))
	}
}

func writeObjectArg(buf *ftutil.Buf, v any, spec string) {
	obj, ok := v.(Object)
	if !ok || isNilObject(obj) {
		buf.Cat("NULL")
		return
	}
	if fn, ok := Dispatch[FormatFn](obj, MethFormat); ok {
		fn(obj, buf, spec)
		return
	}
	if fn, ok := Dispatch[ReprFn](obj, MethRepr); ok {
		buf.Cat(fn(obj).String())
		return
	}
	buf.Cat("NULL")
}

func formatRawInt(buf *ftutil.Buf, v int64, spec string) {
	if spec == "" {
		buf.Catf("%d", v)
		return
	}
	trimmed := stripLengthModifier(spec)
	if conv := trimmed[len(trimmed)-1]; conv == 'i' {
		trimmed = trimmed[:len(trimmed)-1] + "d"
	}
	buf.Catf("%"+trimmed, v)
}

func formatRawUint(buf *ftutil.Buf, v uint64, spec string) {
	if spec == "" {
		buf.Catf("%d", v)
		return
	}
	trimmed := stripLengthModifier(spec)
	if conv := trimmed[len(trimmed)-1]; conv == 'u' {
		trimmed = trimmed[:len(trimmed)-1] + "d"
	}
	buf.Catf("%"+trimmed, v)
}

func formatRawFloat(buf *ftutil.Buf, v float64, spec string) {
	if spec == "" {
		buf.Catf("%g", v)
		return
	}
	buf.Catf("%"+spec, v)
}

// ToStr renders obj the way the default/no-spec conversion would:
// fobjFormat if obj's klass chain implements it, else fobjRepr, else the
// literal NULL for a nil object (spec.md §6, "tostr").
func ToStr(obj Object, spec string) *Str {
	if isNilObject(obj) {
		return NewStr("NULL")
	}
	if fn, ok := Dispatch[FormatFn](obj, MethFormat); ok {
		buf := ftutil.NewBuf(32)
		fn(obj, buf, spec)
		return GiftStr(buf.Steal())
	}
	if fn, ok := Dispatch[ReprFn](obj, MethRepr); ok {
		return fn(obj)
	}
	return NewStr("NULL")
}

// PrintKV renders format against kvs, a slice the caller keeps sorted by
// Key so lookups can binary search it (spec.md §4.H, §6). A missing
// ident is logged, not fatal.
func PrintKV(format string, kvs []KV) *Str {
	lookup := func(ident string) (ftutil.Arg, bool) {
		lo, hi := 0, len(kvs)
		for lo < hi {
			mid := (lo + hi) / 2
			if kvs[mid].Key < ident {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo < len(kvs) && kvs[lo].Key == ident {
			return kvs[lo].Value, true
		}
		return ftutil.Arg{}, false
	}
	buf := ftutil.NewBuf(len(format))
	renderTemplate(buf, format, lookup, false)
	return GiftStr(buf.Steal())
}

// renderErrTemplate interpolates format against an Err's (unsorted,
// typically short) kv list; a missing ident is a programmer error.
func renderErrTemplate(buf *ftutil.Buf, format string, kvs []KV) {
	lookup := func(ident string) (ftutil.Arg, bool) {
		for _, kv := range kvs {
			if kv.Key == ident {
				return kv.Value, true
			}
		}
		return ftutil.Arg{}, false
	}
	renderTemplate(buf, format, lookup, true)
}
