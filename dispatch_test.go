package fobj

import "testing"

func TestSuperCallReachesParentImpl(t *testing.T) {
	method := &MethodRef{}
	MethodInit(method, "testSuperMethod")

	parent := &KlassRef{}
	var parentCalls int
	KlassInit(parent, 8, 0, []MethodImpl{
		{method, fooFn(func(self Object) { parentCalls++ })},
	}, "TestSuperParent")

	child := &KlassRef{}
	var childCalls int
	KlassInit(child, 8, parent.Handle(), []MethodImpl{
		{method, fooFn(func(self Object) { childCalls++ })},
	}, "TestSuperChild")

	obj := &testKlassAPayload{Base: Base{Header{magic: headerMagic, klass: child.Handle()}}}

	fn, ok := Dispatch[fooFn](obj, method)
	if !ok {
		t.Fatalf("expected child impl to be dispatched")
	}
	fn(obj)
	if childCalls != 1 || parentCalls != 0 {
		t.Fatalf("expected only child impl to run on direct dispatch")
	}

	superFn, ok := DispatchSuper[fooFn](obj, method, child.Handle())
	if !ok {
		t.Fatalf("expected super-call to reach parent's impl")
	}
	superFn(obj)
	if parentCalls != 1 {
		t.Fatalf("expected super-call to run parent's impl exactly once")
	}
}

func TestDispatchRefusesCallsOnADisposedObject(t *testing.T) {
	p := PoolInit()
	c := newCounter()
	PoolRelease(p) // drains the pool's only ref, disposing c

	if !Disposed(c) {
		t.Fatalf("expected c to be disposed")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Implements to refuse dispatch on a disposed object")
		}
	}()
	Implements(c, MethDispose)
}

func TestImplementsReflectsAncestry(t *testing.T) {
	method := &MethodRef{}
	MethodInit(method, "testImplementsMethod")

	parent := &KlassRef{}
	KlassInit(parent, 8, 0, []MethodImpl{
		{method, fooFn(func(self Object) {})},
	}, "TestImplementsParent")
	child := &KlassRef{}
	KlassInit(child, 8, parent.Handle(), nil, "TestImplementsChild")
	unrelated := &KlassRef{}
	KlassInit(unrelated, 8, 0, nil, "TestImplementsUnrelated")

	childObj := &testKlassAPayload{Base: Base{Header{magic: headerMagic, klass: child.Handle()}}}
	unrelatedObj := &testKlassAPayload{Base: Base{Header{magic: headerMagic, klass: unrelated.Handle()}}}

	if !Implements(childObj, method) {
		t.Fatalf("expected child to implement method via inheritance")
	}
	if Implements(unrelatedObj, method) {
		t.Fatalf("expected unrelated klass not to implement method")
	}
	if Implements(nil, method) {
		t.Fatalf("expected a nil object to implement nothing")
	}
}
