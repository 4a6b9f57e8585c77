package fobj

import (
	"sync/atomic"

	"github.com/fobjgo/fobj/internal/ftutil"
)

// MethodHandle identifies a registered method: a non-zero integer <=
// 1024 (maxMethods).
type MethodHandle uint16

// methodRecord is the Go translation of fobj_method_registration_t
// (fo_impl.c lines 62-69).
type methodRecord struct {
	name     string
	nameHash uint32
	hashNext MethodHandle

	// first is the head impl index of the singly-linked list of every
	// impl installed for this method, across all klasses.
	first atomic.Uint32
}

var (
	methods     [maxMethods + 1]methodRecord
	methodsHash [hashSize]atomic.Uint32
	methodCount atomic.Uint32
)

// MethodRef is the method analogue of KlassRef.
type MethodRef struct {
	h atomic.Uint32
}

// Handle returns the interned handle, or 0 if MethodInit has not run yet.
func (r *MethodRef) Handle() MethodHandle { return MethodHandle(r.h.Load()) }

// MethodInit interns a method by name, following the identical protocol
// to KlassInit but without size/parent/method-list fields (spec.md
// §4.B). Grounded on fobj_method_init_impl (fo_impl.c lines 104-149).
//
// Unlike klass registration, re-registering an existing method name
// always succeeds regardless of state; only allocating a brand new
// handle requires the runtime still be INITIALIZED (not yet FROZEN).
func MethodInit(ref *MethodRef, name string) (handle MethodHandle, existed bool) {
	if mh := ref.h.Load(); mh != 0 {
		ftutil.Assert(mh <= methodCount.Load(), "fobj: stale method handle")
		ftutil.Assert(methods[mh].name == name, "fobj: method %q re-registered as %q", methods[mh].name, name)
		return MethodHandle(mh), true
	}

	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if mh := ref.h.Load(); mh != 0 {
		return MethodHandle(mh), true
	}

	nameHash := ftutil.SmallHash(name)
	bucket := nameHash % hashSize
	for mh := methodsHash[bucket].Load(); mh != 0; mh = uint32(methods[mh].hashNext) {
		reg := &methods[mh]
		if reg.nameHash == nameHash && reg.name == name {
			ref.h.Store(mh)
			return MethodHandle(mh), true
		}
	}

	ftutil.Assert(currentState() == initialized, "fobj: method registration requires an initialized runtime")

	mh := methodCount.Load() + 1
	ftutil.Assert(mh <= maxMethods, "fobj: too many methods defined")

	reg := &methods[mh]
	reg.name = name
	reg.nameHash = nameHash
	reg.hashNext = MethodHandle(methodsHash[bucket].Load())
	methodsHash[bucket].Store(mh)

	methodCount.Store(mh)

	ref.h.Store(mh)
	return MethodHandle(mh), false
}

// MethodName returns the exact name bytes used at registration.
func MethodName(m MethodHandle) string {
	ftutil.Assert(currentState() != notInitialized, "fobj: runtime not initialized")
	ftutil.DbgAssert(m != 0 && uint32(m) <= methodCount.Load(), "fobj: invalid method handle")
	return methods[m].name
}

// Well-known methods, registered by Init.
var (
	MethDispose = &MethodRef{}
	MethRepr    = &MethodRef{}
	MethFormat  = &MethodRef{}
)

func registerWellKnownMethods() {
	MethodInit(MethDispose, "fobjDispose")
	MethodInit(MethRepr, "fobjRepr")
	MethodInit(MethFormat, "fobjFormat")
}
