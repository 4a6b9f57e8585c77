package fobj

import "testing"

func TestInstallImplIsIdempotent(t *testing.T) {
	kref := &KlassRef{}
	KlassInit(kref, 8, 0, nil, "TestIdempotentImplKlass")
	mref := &MethodRef{}
	MethodInit(mref, "testIdempotentMethod")

	var calls int
	impl := fooFn(func(self Object) { calls++ })

	InstallImpl(kref.Handle(), mref.Handle(), impl)
	InstallImpl(kref.Handle(), mref.Handle(), impl) // same func value: no-op, not fatal

	fn, ok := Dispatch[fooFn](&testKlassAPayload{Base: Base{Header{magic: headerMagic, klass: kref.Handle()}}}, mref)
	if !ok {
		t.Fatalf("expected impl to be installed")
	}
	fn(nil)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestInstallImplDifferentFuncIsFatal(t *testing.T) {
	kref := &KlassRef{}
	KlassInit(kref, 8, 0, nil, "TestConflictingImplKlass")
	mref := &MethodRef{}
	MethodInit(mref, "testConflictingMethod")

	InstallImpl(kref.Handle(), mref.Handle(), fooFn(func(self Object) {}))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic installing a different impl for the same (klass, method)")
		}
	}()
	InstallImpl(kref.Handle(), mref.Handle(), fooFn(func(self Object) {}))
}
