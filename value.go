package fobj

import (
	"strings"

	"github.com/fobjgo/fobj/internal/ftutil"
)

// Well-known klasses, registered by Init via registerBuiltinKlasses.
// fobjBase is the implicit root every klass is actually rooted at,
// including a caller's own klass declared with no parent: KlassInit
// rewrites a literal parent of 0 to BaseKlass.Handle() for every klass
// but fobjBase itself. Its only method is a default Repr, so dispatch
// never simply fails for a klass that declares neither Repr nor Format
// (fo_impl.c lines 586-596, "fobjBase_fobjRepr").
var (
	BaseKlass  = &KlassRef{}
	StrKlass   = &KlassRef{}
	IntKlass   = &KlassRef{}
	UIntKlass  = &KlassRef{}
	FloatKlass = &KlassRef{}
	BoolKlass  = &KlassRef{}
)

// Str is an immutable byte sequence. The original distinguishes inline
// storage (payload following the header, for a variable-sized klass)
// from an externally heap-allocated buffer, so that short strings avoid
// a second allocation; a Go slice already indirects to its backing
// array regardless of how it was built, so that distinction collapses
// into a single representation here — GiftStr for the "adopt an
// existing buffer" constructor, NewStr for the "copy into a fresh one"
// constructor.
type Str struct {
	Base
	b []byte
}

// Int, UInt, Float and Bool are scalar wrappers (spec.md §4.G).
type (
	Int   struct{ Base; v int64 }
	UInt  struct{ Base; v uint64 }
	Float struct{ Base; v float64 }
	Bool  struct{ Base; v bool }
)

// trueBool and falseBool are Bool's two canonical singletons, built
// directly rather than through Alloc so they are never subject to
// autorelease or dispose — they live for the process lifetime,
// mirroring the "created at init" singletons the spec calls for.
var (
	trueBool  *Bool
	falseBool *Bool
)

func registerBuiltinKlasses() {
	KlassInit(BaseKlass, 0, 0, []MethodImpl{
		{MethRepr, ReprFn(baseRepr)},
	}, "fobjBase")

	KlassInit(StrKlass, -1, BaseKlass.Handle(), []MethodImpl{
		{MethRepr, ReprFn(strRepr)},
		{MethFormat, FormatFn(strFormat)},
	}, "Str")

	KlassInit(IntKlass, 8, BaseKlass.Handle(), []MethodImpl{
		{MethRepr, ReprFn(intRepr)},
		{MethFormat, FormatFn(intFormat)},
	}, "Int")

	KlassInit(UIntKlass, 8, BaseKlass.Handle(), []MethodImpl{
		{MethRepr, ReprFn(uintRepr)},
		{MethFormat, FormatFn(uintFormat)},
	}, "UInt")

	KlassInit(FloatKlass, 8, BaseKlass.Handle(), []MethodImpl{
		{MethRepr, ReprFn(floatRepr)},
		{MethFormat, FormatFn(floatFormat)},
	}, "Float")

	KlassInit(BoolKlass, 1, BaseKlass.Handle(), []MethodImpl{
		{MethRepr, ReprFn(boolRepr)},
		{MethFormat, FormatFn(boolFormat)},
	}, "Bool")

	registerErrKlass()
}

func initBoolSingletons() {
	trueBool = newBoolSingleton(true)
	falseBool = newBoolSingleton(false)
}

func newBoolSingleton(v bool) *Bool {
	b := &Bool{v: v}
	h := b.fobjHeader()
	h.magic = headerMagic
	h.klass = BoolKlass.Handle()
	h.rc.Store(1)
	return b
}

// baseRepr is fobjBase's default Repr, inherited by any klass that
// declares neither Repr nor Format of its own: "<KlassName>@<pointer>",
// the Go stand-in for the original's `fobj_sprintf("%s@%p", ...)"`. The
// pointer printed is the object's header address, which — since Header
// is always Base's (and so every klass struct's) first embedded field —
// is the same address a C reader would get from `self` itself.
func baseRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	h := self.fobjHeader()
	return Sprintf("%s@%p", KlassName(RealKlassOf(self)), h)
}

// --- Str ---

// GiftStr wraps b in a new Str, adopting it without copying — the Go
// stand-in for the original's "gift ownership of a heap buffer"
// constructor.
func GiftStr(b []byte) *Str {
	s := Alloc[Str](StrKlass)
	s.b = b
	return s
}

// NewStr copies s into a freshly allocated Str.
func NewStr(s string) *Str {
	b := make([]byte, len(s))
	copy(b, s)
	return GiftStr(b)
}

// NewStrBytes copies b into a freshly allocated Str.
func NewStrBytes(b []byte) *Str {
	cp := make([]byte, len(b))
	copy(cp, b)
	return GiftStr(cp)
}

func (s *Str) Bytes() []byte { return s.b }
func (s *Str) String() string {
	if s == nil {
		return ""
	}
	return string(s.b)
}
func (s *Str) Len() int { return len(s.b) }

// Strcat appends suffix to a, always returning a freshly allocated Str
// except when suffix is empty, in which case a itself is returned,
// ref'd and autoreleased to match the calling convention of every other
// branch (spec.md §4.G).
func Strcat(a *Str, suffix []byte) *Str {
	if len(suffix) == 0 {
		Ref(a)
		return autorelease(a).(*Str)
	}
	buf := ftutil.NewBuf(len(a.b) + len(suffix))
	buf.Cat(string(a.b))
	buf.Cat(string(suffix))
	return GiftStr(buf.Steal())
}

// Sprintf builds a Str via the byte buffer's printf-style catenation
// then adopts its storage (spec.md §4.G, §6).
func Sprintf(format string, args ...any) *Str {
	buf := ftutil.NewBuf(len(format))
	buf.Catf(format, args...)
	return GiftStr(buf.Steal())
}

// Strcatf appends a printf-style formatted suffix to s.
func Strcatf(s *Str, format string, args ...any) *Str {
	buf := ftutil.BufFromString(s.String())
	buf.Catf(format, args...)
	return GiftStr(buf.Steal())
}

// escapeInto appends b to buf quoted and escaped per the shared escape
// table used by both repr and format spec "q" (spec.md §4.G): `"` `\t`
// `\n` `\r` `\a` `\b` `\f` `\v` `\\` get two-character escapes; any other
// byte below 0x20 becomes `\xHH`; everything else passes through
// verbatim.
func escapeInto(buf *ftutil.Buf, b []byte) {
	buf.Cat1('"')
	for _, c := range b {
		switch c {
		case '"':
			buf.Cat2('\\', '"')
		case '\t':
			buf.Cat2('\\', 't')
		case '\n':
			buf.Cat2('\\', 'n')
		case '\r':
			buf.Cat2('\\', 'r')
		case '\a':
			buf.Cat2('\\', 'a')
		case '\b':
			buf.Cat2('\\', 'b')
		case '\f':
			buf.Cat2('\\', 'f')
		case '\v':
			buf.Cat2('\\', 'v')
		case '\\':
			buf.Cat2('\\', '\\')
		default:
			if c < 0x20 {
				buf.Catf(`\x%02x`, c)
			} else {
				buf.Cat1(c)
			}
		}
	}
	buf.Cat1('"')
}

func strRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	s := self.(*Str)
	buf := ftutil.NewBuf(len(s.b) + 8)
	buf.Cat("$S(")
	escapeInto(buf, s.b)
	buf.Cat1(')')
	return GiftStr(buf.Steal())
}

// strFormat supports spec "q" (quoted, escaped) and otherwise writes
// the raw bytes verbatim — a deliberately narrower reading of "an
// inherited printf-like specifier" than the original's full %s-style
// width/precision support, since nothing else in this runtime exercises
// that generality.
func strFormat(self Object, buf *ftutil.Buf, spec string) {
	if isNilObject(self) {
		buf.Cat("NULL")
		return
	}
	s := self.(*Str)
	if spec == "q" {
		escapeInto(buf, s.b)
		return
	}
	buf.Cat(string(s.b))
}

// --- Int / UInt / Float ---

func NewInt(v int64) *Int {
	o := Alloc[Int](IntKlass)
	o.v = v
	return o
}
func (i *Int) Value() int64 { return i.v }

func NewUInt(v uint64) *UInt {
	o := Alloc[UInt](UIntKlass)
	o.v = v
	return o
}
func (u *UInt) Value() uint64 { return u.v }

func NewFloat(v float64) *Float {
	o := Alloc[Float](FloatKlass)
	o.v = v
	return o
}
func (f *Float) Value() float64 { return f.v }

func intRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	return Sprintf("$I(%d)", self.(*Int).v)
}

func uintRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	return Sprintf("$U(%d)", self.(*UInt).v)
}

func floatRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	return Sprintf("$F(%v)", self.(*Float).v)
}

// stripLengthModifier drops a trailing C integer length modifier (l, ll
// or z) immediately before the conversion character, since Go's formatted
// verbs are always 64-bit and need no width-of-integer hint (spec.md
// §4.G).
func stripLengthModifier(spec string) string {
	if spec == "" {
		return spec
	}
	body, conv := spec[:len(spec)-1], spec[len(spec)-1:]
	body = strings.TrimSuffix(body, "ll")
	body = strings.TrimSuffix(body, "l")
	body = strings.TrimSuffix(body, "z")
	return body + conv
}

func intFormat(self Object, buf *ftutil.Buf, spec string) {
	if isNilObject(self) {
		buf.Cat("NULL")
		return
	}
	v := self.(*Int).v
	if spec == "" {
		buf.Catf("%d", v)
		return
	}
	trimmed := stripLengthModifier(spec)
	conv := trimmed[len(trimmed)-1]
	if conv == 'i' {
		trimmed = trimmed[:len(trimmed)-1] + "d"
	}
	buf.Catf("%"+trimmed, v)
}

func uintFormat(self Object, buf *ftutil.Buf, spec string) {
	if isNilObject(self) {
		buf.Cat("NULL")
		return
	}
	v := self.(*UInt).v
	if spec == "" {
		buf.Catf("%d", v)
		return
	}
	trimmed := stripLengthModifier(spec)
	conv := trimmed[len(trimmed)-1]
	if conv == 'u' {
		trimmed = trimmed[:len(trimmed)-1] + "d"
	}
	buf.Catf("%"+trimmed, v)
}

func floatFormat(self Object, buf *ftutil.Buf, spec string) {
	if isNilObject(self) {
		buf.Cat("NULL")
		return
	}
	v := self.(*Float).v
	if spec == "" {
		buf.Catf("%g", v)
		return
	}
	buf.Catf("%"+spec, v)
}

// --- Bool ---

// NewBool returns one of the two process-lifetime singletons, never a
// fresh allocation.
func NewBool(v bool) *Bool {
	if v {
		return trueBool
	}
	return falseBool
}
func (b *Bool) Value() bool { return b.v }

func boolRepr(self Object) *Str {
	if isNilObject(self) {
		return NewStr("NULL")
	}
	if self.(*Bool).v {
		return NewStr("$B(true)")
	}
	return NewStr("$B(false)")
}

// boolWord maps one of Bool's extra format conversion letters to its
// rendered word: B/b/P/Y/y for TRUE-FALSE/true-false/True-False/Yes-No/
// yes-no (spec.md §4.G). An unrecognized letter falls back to "b".
func boolWord(letter byte, v bool) string {
	switch letter {
	case 'B':
		if v {
			return "TRUE"
		}
		return "FALSE"
	case 'P':
		if v {
			return "True"
		}
		return "False"
	case 'Y':
		if v {
			return "Yes"
		}
		return "No"
	case 'y':
		if v {
			return "yes"
		}
		return "no"
	default:
		if v {
			return "true"
		}
		return "false"
	}
}

func boolFormat(self Object, buf *ftutil.Buf, spec string) {
	if isNilObject(self) {
		buf.Cat("NULL")
		return
	}
	letter := byte('b')
	if spec != "" {
		letter = spec[len(spec)-1]
	}
	buf.Cat(boolWord(letter, self.(*Bool).v))
}
