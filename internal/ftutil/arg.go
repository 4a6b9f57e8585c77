package ftutil

// ArgType is the type tag of a tagged-union Arg: one of i|u|f|s|b|o.
type ArgType byte

const (
	ArgInt    ArgType = 'i'
	ArgUint   ArgType = 'u'
	ArgFloat  ArgType = 'f'
	ArgString ArgType = 's'
	ArgBool   ArgType = 'b'
	ArgObject ArgType = 'o'
)

// Arg is a small tagged-union argument value, the Go stand-in for the
// original runtime's ft_arg_t contract. Exactly one of the typed fields
// is meaningful, selected by Type. Object is an opaque `any` here —
// ftutil has no dependency on the fobj package's object types, so the
// caller (package fobj) is responsible for the type assertion back to
// its own object representation.
type Arg struct {
	Type   ArgType
	I      int64
	U      uint64
	F      float64
	S      string
	B      bool
	Object any
}

func ArgI(v int64) Arg    { return Arg{Type: ArgInt, I: v} }
func ArgU(v uint64) Arg   { return Arg{Type: ArgUint, U: v} }
func ArgF(v float64) Arg  { return Arg{Type: ArgFloat, F: v} }
func ArgS(v string) Arg   { return Arg{Type: ArgString, S: v} }
func ArgB(v bool) Arg     { return Arg{Type: ArgBool, B: v} }
func ArgO(v any) Arg      { return Arg{Type: ArgObject, Object: v} }
