package fobj

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/fobjgo/fobj/internal/ftutil"
)

func TestMakeErrRendersMessage(t *testing.T) {
	e := MakeErr("IO", "cannot open {path:q}: {code}",
		KV{Key: "path", Value: ftutil.ArgS("/tmp/x")},
		KV{Key: "code", Value: ftutil.ArgI(2)},
	)
	if e.Error() != `cannot open "/tmp/x": 2` {
		t.Fatalf("message = %q, want %q", e.Error(), `cannot open "/tmp/x": 2`)
	}
}

func TestMakeErrDefaultsTypeToRT(t *testing.T) {
	e := MakeErr("", "boom")
	if e.typ != "RT" {
		t.Fatalf("typ = %q, want RT", e.typ)
	}
}

func TestMakeErrMsgSuffixIsAppendedAndDropped(t *testing.T) {
	e := MakeErr("RT", "base", SuffixKV(" tail"))
	if e.Error() != "base tail" {
		t.Fatalf("message = %q, want %q", e.Error(), "base tail")
	}
	if _, found := GetKV(e, "__msgSuffix", ftutil.Arg{}); found {
		t.Fatalf("__msgSuffix must not be kept in the stored kv list")
	}
}

func TestErrKVListHasExpectedShape(t *testing.T) {
	e := MakeErr("IO", "opening {path:q}",
		KV{Key: "path", Value: ftutil.ArgS("/tmp/x")},
		KV{Key: "code", Value: ftutil.ArgI(2)},
	)
	want := []KV{
		{Key: "path", Value: ftutil.ArgS("/tmp/x")},
		{Key: "code", Value: ftutil.ArgI(2)},
	}
	if diff := pretty.Compare(e.kv, want); diff != "" {
		t.Fatalf("stored kv list does not have the expected shape (-got +want):\n%s", diff)
	}
}

func TestGetKVReportsAbsenceCorrectly(t *testing.T) {
	e := MakeErr("RT", "msg", KV{Key: "present", Value: ftutil.ArgI(1)})

	v, found := GetKV(e, "present", ftutil.ArgI(-1))
	if !found || v.I != 1 {
		t.Fatalf("GetKV(present) = (%v, %v), want (1, true)", v, found)
	}

	_, found = GetKV(e, "absent", ftutil.ArgI(-1))
	if found {
		t.Fatalf("GetKV(absent) must report found=false")
	}
	if _, found := GetKV(nil, "anything", ftutil.Arg{}); found {
		t.Fatalf("GetKV(nil, ...) must report found=false")
	}
}

func TestCombineNilShortCircuits(t *testing.T) {
	e := MakeErr("A", "a")
	if Combine(nil, e) != e {
		t.Fatalf("Combine(nil, e) must return e")
	}
	if Combine(e, nil) != e {
		t.Fatalf("Combine(e, nil) must return e")
	}
}

func TestCombineChainsSiblingsAndRefusesCycles(t *testing.T) {
	a := MakeErr("A", "a")
	b := MakeErr("B", "b")

	combined := Combine(a, b)
	if combined != a || a.sibling != b {
		t.Fatalf("expected Combine(a, b) to chain b onto a's sibling slot")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Combine to refuse introducing a cycle")
		}
	}()
	Combine(b, a)
}

func TestCombineRefusesReintroducingAnExistingSibling(t *testing.T) {
	a := MakeErr("A", "a")
	b := MakeErr("B", "b")
	c := MakeErr("C", "c")
	Combine(a, b) // a -> b
	Combine(a, c) // a -> c -> b (c is re-parented ahead of b)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected re-combining a with its own sibling c to refuse introducing a cycle")
		}
	}()
	Combine(a, c)
}

func TestCombineReprIncludesBothTypes(t *testing.T) {
	a := MakeErr("A", "a")
	b := MakeErr("B", "b")
	combined := Combine(a, b)

	r := errRepr(combined).String()
	if !containsAll(r, "$err(A", "$err(B") {
		t.Fatalf("repr %q does not mention both constituent types", r)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !stringsContains(s, sub) {
			return false
		}
	}
	return true
}

func stringsContains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestErrFormatDefaultAndCustomDirectives(t *testing.T) {
	e := MakeErr("IO", "boom")
	if got := ToStr(e, ""); !stringsContains(got.String(), "IO: boom (") {
		t.Fatalf("default format %q missing type/message prefix", got.String())
	}

	custom := ToStr(e, "$T/$M")
	if custom.String() != "IO/boom" {
		t.Fatalf("custom format = %q, want IO/boom", custom.String())
	}
}

func TestErrSatisfiesStdlibErrorAndUnwrap(t *testing.T) {
	a := MakeErr("A", "a")
	b := MakeErr("B", "b")
	Combine(a, b)

	var target error = a
	if target.Error() != "a" {
		t.Fatalf("Error() = %q, want %q", target.Error(), "a")
	}
	if errors.Unwrap(target) != error(b) {
		t.Fatalf("Unwrap did not expose the sibling chain")
	}
}

func TestToErrorCarriesStack(t *testing.T) {
	e := MakeErr("RT", "boom")
	wrapped := e.ToError()
	if wrapped.Error() != "boom" {
		t.Fatalf("ToError().Error() = %q, want %q", wrapped.Error(), "boom")
	}
	if !stringsContains(fmt.Sprintf("%+v", wrapped), "TestToErrorCarriesStack") {
		t.Fatalf("ToError() did not capture a stack trace including its caller")
	}
}
