package fobj

import (
	"github.com/pkg/errors"

	"github.com/fobjgo/fobj/internal/ftutil"
)

// ErrKlass is the built-in domain-error klass (spec.md §4.G, §7).
var ErrKlass = &KlassRef{}

// Err is a structured, typed, sourced domain error. Unlike the rest of
// the runtime's built-ins, nothing about Err needs a macro-level escape
// hatch from its own method table the way the original's
// fobjErr__fobjErr_marker_DONT_IMPLEMENT_ME sentinel provided — that
// existed to stop a C macro from auto-generating a conflicting repr
// registration; Go has no such macro expansion; errRepr is installed
// through the ordinary KlassInit path below like any other built-in.
type Err struct {
	Base
	typ     string
	message string
	src     ftutil.SourcePosition
	kv      []KV
	sibling *Err
}

func registerErrKlass() {
	KlassInit(ErrKlass, 0, BaseKlass.Handle(), []MethodImpl{
		{MethDispose, DisposeFn(errDispose)},
		{MethRepr, ReprFn(errRepr)},
		{MethFormat, FormatFn(errFormat)},
	}, "Err")
}

// SuffixKV wraps s as the pseudo key/value pair MakeErr recognizes as a
// literal message suffix rather than a stored attribute (spec.md §4.H,
// "__msgSuffix").
func SuffixKV(s string) KV {
	return KV{Key: "__msgSuffix", Value: ftutil.ArgS(s)}
}

// MakeErr allocates a new Err (spec.md §4.H, "make_err"). The source
// position is captured from MakeErr's caller automatically rather than
// threaded through as a parameter — Go's runtime.Caller makes that the
// natural way to do it, the same reasoning pkg/errors.New relies on for
// its own stack capture. typ defaults to "RT" when empty.
//
// kvs is scanned for a SuffixKV entry, which is appended to the rendered
// message and dropped from the stored attribute list; every other
// object-valued entry is ref'd, since the Err now owns a strong
// reference to it until it is disposed.
func MakeErr(typ, msgFormat string, kvs ...KV) *Err {
	if typ == "" {
		typ = "RT"
	}
	pos := ftutil.Here(1)

	var suffix string
	compacted := make([]KV, 0, len(kvs))
	for _, kv := range kvs {
		if kv.Key == "__msgSuffix" {
			suffix = kv.Value.S
			continue
		}
		if kv.Value.Type == ftutil.ArgObject {
			if obj, ok := kv.Value.Object.(Object); ok {
				Ref(obj)
			}
		}
		compacted = append(compacted, kv)
	}

	e := Alloc[Err](ErrKlass)
	e.typ = typ
	e.src = pos
	e.kv = compacted

	buf := ftutil.NewBuf(len(msgFormat) + 16)
	renderErrTemplate(buf, msgFormat, compacted)
	buf.Cat(suffix)
	e.message = buf.String()
	return e
}

// GetKV looks up key in e's attribute list, returning def and false if
// e is nil or the key is absent. The original's found-flag assignment
// wrote to the local bool behind the out-parameter without
// dereferencing it, so absence was silently never reported to the
// caller (spec.md §9, open question); a plain second return value makes
// that class of bug impossible to write by construction.
func GetKV(e *Err, key string, def ftutil.Arg) (ftutil.Arg, bool) {
	if e == nil {
		return def, false
	}
	for _, kv := range e.kv {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return def, false
}

// errInChain reports whether target appears anywhere in root's sibling
// chain, root included.
func errInChain(root, target *Err) bool {
	for e := root; e != nil; e = e.sibling {
		if e == target {
			return true
		}
	}
	return false
}

// Combine links second directly after first in first's sibling chain,
// re-parenting any chain first already had onto the tail of second's
// own chain, and returns first (spec.md §4.H, "err_combine"). Either argument being nil
// short-circuits to the other. Resolving the open question the original
// left unguarded, Combine refuses to link an error into its own chain.
func Combine(first, second *Err) *Err {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	// Both directions must be checked: second already appearing in
	// first's own chain (re-combining an error with one of its own
	// siblings) would still produce a cycle once re-parented below,
	// exactly as surely as first appearing in second's chain would.
	ftutil.Assert(!errInChain(first, second), "fobj: Combine would introduce a cycle")
	ftutil.Assert(!errInChain(second, first), "fobj: Combine would introduce a cycle")

	if first.sibling == nil {
		first.sibling = second
		return first
	}

	oldSibling := first.sibling
	first.sibling = second
	tail := second
	for tail.sibling != nil {
		tail = tail.sibling
	}
	tail.sibling = oldSibling
	return first
}

func errDispose(self Object) {
	e := self.(*Err)
	for _, kv := range e.kv {
		if kv.Value.Type == ftutil.ArgObject {
			if obj, ok := kv.Value.Object.(Object); ok {
				Release(obj)
			}
		}
	}
	if e.sibling != nil {
		Release(e.sibling)
		e.sibling = nil
	}
}

// reprArg renders a single tagged value the way MakeErr's repr wants its
// attribute values shown: each built-in scalar's own $-prefixed literal
// form, or an object's fobjRepr.
func reprArg(a ftutil.Arg) *Str {
	switch a.Type {
	case ftutil.ArgInt:
		return Sprintf("$I(%d)", a.I)
	case ftutil.ArgUint:
		return Sprintf("$U(%d)", a.U)
	case ftutil.ArgFloat:
		return Sprintf("$F(%v)", a.F)
	case ftutil.ArgString:
		buf := ftutil.NewBuf(len(a.S) + 8)
		buf.Cat("$S(")
		escapeInto(buf, []byte(a.S))
		buf.Cat1(')')
		return GiftStr(buf.Steal())
	case ftutil.ArgBool:
		if a.B {
			return NewStr("$B(true)")
		}
		return NewStr("$B(false)")
	case ftutil.ArgObject:
		if obj, ok := a.Object.(Object); ok && !isNilObject(obj) {
			if fn, ok := Dispatch[ReprFn](obj, MethRepr); ok {
				return fn(obj)
			}
		}
		return NewStr("NULL")
	default:
		return NewStr("NULL")
	}
}

func writeErrReprOne(buf *ftutil.Buf, e *Err) {
	buf.Cat("$err(")
	buf.Cat(e.typ)
	buf.Cat(", ")
	escapeInto(buf, []byte(e.message))
	for _, kv := range e.kv {
		buf.Cat(", (")
		buf.Cat(kv.Key)
		buf.Cat(", ")
		buf.Cat(reprArg(kv.Value).String())
		buf.Cat1(')')
	}
	buf.Cat1(')')
}

// errRepr renders `$err(type, "message"[, (key, reprValue)]...)` for the
// error itself, then each sibling in turn — Scenario 5 of the testable
// properties requires a combined error's repr to show every constituent
// type.
func errRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	e := self.(*Err)
	buf := ftutil.NewBuf(64)
	writeErrReprOne(buf, e)
	for s := e.sibling; s != nil; s = s.sibling {
		buf.Cat(" + ")
		writeErrReprOne(buf, s)
	}
	return GiftStr(buf.Steal())
}

// errFormat renders the default `type: message (func@file:line)` form
// when spec is empty, or a custom template using the directives $T $M $F
// $f $l $K $$ (spec.md §4.H).
func errFormat(self Object, buf *ftutil.Buf, spec string) {
	if isNilObject(self) {
		buf.Cat("NULL")
		return
	}
	e := self.(*Err)
	if spec == "" {
		buf.Catf("%s: %s (%s@%s:%d)", e.typ, e.message, e.src.Func, e.src.File, e.src.Line)
		return
	}

	n := len(spec)
	for i := 0; i < n; i++ {
		c := spec[i]
		if c != '$' || i+1 >= n {
			buf.Cat1(c)
			continue
		}
		i++
		switch spec[i] {
		case 'T':
			buf.Cat(e.typ)
		case 'M':
			buf.Cat(e.message)
		case 'F':
			buf.Cat(e.src.Func)
		case 'f':
			buf.Cat(e.src.File)
		case 'l':
			buf.Catf("%d", e.src.Line)
		case 'K':
			buf.Cat1('{')
			for idx, kv := range e.kv {
				if idx > 0 {
					buf.Cat(", ")
				}
				buf.Cat(kv.Key)
				buf.Cat(": ")
				buf.Cat(reprArg(kv.Value).String())
			}
			buf.Cat1('}')
		case '$':
			buf.Cat1('$')
		default:
			ftutil.Assert(false, "fobj: unknown error format directive %q", spec[i])
		}
	}
}

// Error implements the standard library error interface, so an *Err can
// be returned, wrapped and compared anywhere idiomatic Go expects one.
func (e *Err) Error() string { return e.message }

// Unwrap exposes the sibling chain through errors.Is/errors.As.
func (e *Err) Unwrap() error {
	if e.sibling == nil {
		return nil
	}
	return e.sibling
}

// ToError adapts e to a stdlib error carrying a captured stack trace,
// for embedding programs that want pkg/errors-style diagnostics rather
// than this runtime's own $T/$M/$F directives.
func (e *Err) ToError() error {
	return errors.WithStack(e)
}
