package fobj

import "testing"

type testKlassAPayload struct {
	Base
	v int
}

type testKlassBPayload struct {
	testKlassAPayload
}

var (
	testKlassA     = &KlassRef{}
	testKlassB     = &KlassRef{}
	testMethodFoo  = &MethodRef{}
	fooCallOnA     int
	fooCallOnB     int
)

func fooImplA(self Object) { fooCallOnA++ }
func fooImplB(self Object) { fooCallOnB++ }

type fooFn func(self Object)

func TestKlassInitInternsOnce(t *testing.T) {
	MethodInit(testMethodFoo, "foo")

	h1, existed1 := KlassInit(testKlassA, 16, 0, []MethodImpl{
		{testMethodFoo, fooFn(fooImplA)},
	}, "TestKlassA")
	if existed1 {
		t.Fatalf("first KlassInit should not report existed")
	}

	h2, existed2 := KlassInit(testKlassA, 16, 0, []MethodImpl{
		{testMethodFoo, fooFn(fooImplA)},
	}, "TestKlassA")
	if !existed2 || h2 != h1 {
		t.Fatalf("re-registering the same klass should return the same handle with existed=true")
	}
}

func TestKlassInitRejectsSizeMismatch(t *testing.T) {
	ref := &KlassRef{}
	KlassInit(ref, 16, 0, nil, "TestKlassSizeMismatch")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic re-registering with a different size")
		}
	}()
	KlassInit(ref, 32, 0, nil, "TestKlassSizeMismatch")
}

func TestDispatchWalksParentChain(t *testing.T) {
	MethodInit(testMethodFoo, "foo")
	KlassInit(testKlassA, 16, 0, []MethodImpl{
		{testMethodFoo, fooFn(fooImplA)},
	}, "TestKlassA")
	bHandle, _ := KlassInit(testKlassB, 16, testKlassA.Handle(), nil, "TestKlassB")

	fn, ok := Dispatch[fooFn](&testKlassBPayload{testKlassAPayload: testKlassAPayload{Base: Base{Header{magic: headerMagic, klass: bHandle}}}}, testMethodFoo)
	if !ok {
		t.Fatalf("expected TestKlassB to inherit foo from TestKlassA")
	}
	before := fooCallOnA
	fn(nil)
	if fooCallOnA != before+1 {
		t.Fatalf("expected inherited impl to run")
	}
}

func TestKlassNameRoundTrips(t *testing.T) {
	ref := &KlassRef{}
	KlassInit(ref, 8, 0, nil, "TestKlassNameRoundTrip")
	if got := KlassName(ref.Handle()); got != "TestKlassNameRoundTrip" {
		t.Fatalf("KlassName = %q, want exact bytes used at registration", got)
	}
}
