package fobj

import (
	"sync/atomic"

	"github.com/fobjgo/fobj/internal/ftutil"
)

const (
	maxKlasses = 1024
	maxMethods = 1024
	maxImpls   = 32767
	// partitions is the width of a klass's per-method-partition impl
	// list heads (spec.md §3, "16 partition heads"). A method's handle
	// modulo partitions picks the list it lives on.
	partitions = 16
	// hashSize matches the original runtime's (admittedly coincidental,
	// since max klasses == max methods there) choice of
	// MAX_METHODS/4 for both the klass and the method name hash tables.
	hashSize = maxMethods / 4
)

// KlassHandle identifies a registered klass: a non-zero integer <= 1024
// (maxKlasses).
// Zero means "no klass" / root.
type KlassHandle uint16

// klassRecord is the Go translation of fobj_klass_registration_t
// (fo_impl.c lines 46-60).
type klassRecord struct {
	name     string
	nameHash uint32
	hashNext KlassHandle // written once before publish; plain field is safe to read after acquiring via the hash bucket atomic

	size   int // negative encodes a variable-sized tail: fixed prefix = -1-size
	parent KlassHandle

	dispose atomic.Pointer[DisposeFn]

	// partitionHeads[m%partitions] is the head impl index of the
	// singly-linked per-klass-partition impl list.
	partitionHeads [partitions]atomic.Uint32
}

var (
	klasses     [maxKlasses + 1]klassRecord
	klassesHash [hashSize]atomic.Uint32
	klassCount  atomic.Uint32
)

// KlassRef is a caller-owned, process-lifetime memoization cell for a
// klass handle — the Go stand-in for the original runtime's
// `volatile fobj_klass_handle_t *` out-parameter, which let repeated
// registrations of the same klass from multiple translation units share
// one handle. A package declares one KlassRef per klass as a package
// variable and passes it to KlassInit.
type KlassRef struct {
	h atomic.Uint32
}

// Handle returns the interned handle, or 0 if KlassInit has not run yet.
func (r *KlassRef) Handle() KlassHandle { return KlassHandle(r.h.Load()) }

// MethodImpl pairs a method with the function implementing it for one
// klass, the Go stand-in for fobj__method_impl_box_t.
type MethodImpl struct {
	Method *MethodRef
	Impl   any
}

// KlassInit interns a klass: if ref already holds a handle, or a klass
// by this name is already registered, its handle is returned (existed ==
// true) after asserting size and parent match (spec.md §4.A). Otherwise
// a new klass is registered, its declared methods installed, and the new
// handle is published. Unlike MethodInit's narrower carve-out, klass
// registration of any kind — new or a re-registration of one already
// known — requires the runtime still be INITIALIZED, checked first and
// unconditionally, mirroring fobj_klass_init_impl's own unconditional
// ft_assert(fobj_global_state == FOBJ_RT_INITIALIZED) ahead of its
// existing-handle fast paths (fo_impl.c line 322). Grounded on
// fobj_klass_init_impl (fo_impl.c lines 315-374).
//
// A literal parent of 0 is rewritten to BaseKlass's handle for every
// klass but fobjBase itself, so every klass is actually rooted at the
// implicit Base klass (spec.md supplement, fo_impl.c lines 586-596).
func KlassInit(ref *KlassRef, size int, parent KlassHandle, methodImpls []MethodImpl, name string) (handle KlassHandle, existed bool) {
	ftutil.Assert(currentState() == initialized, "fobj: klass registration requires an initialized runtime")

	if parent == 0 && ref != BaseKlass && BaseKlass.Handle() != 0 {
		parent = BaseKlass.Handle()
	}

	if kl := ref.h.Load(); kl != 0 {
		reg := &klasses[kl]
		ftutil.Assert(kl <= klassCount.Load(), "fobj: stale klass handle")
		ftutil.Assert(reg.name == name, "fobj: klass %q re-registered as %q", reg.name, name)
		ftutil.Assert(reg.size == size, "fobj: klass %q re-registered with different size", name)
		ftutil.Assert(reg.parent == parent, "fobj: klass %q re-registered with different parent", name)
		return KlassHandle(kl), true
	}

	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if kl := ref.h.Load(); kl != 0 {
		return KlassHandle(kl), true
	}

	nameHash := ftutil.SmallHash(name)
	bucket := nameHash % hashSize
	for kl := klassesHash[bucket].Load(); kl != 0; kl = uint32(klasses[kl].hashNext) {
		reg := &klasses[kl]
		if reg.nameHash == nameHash && reg.name == name {
			ftutil.Assert(reg.size == size, "fobj: klass %q re-registered with different size", name)
			ftutil.Assert(reg.parent == parent, "fobj: klass %q re-registered with different parent", name)
			ref.h.Store(kl)
			return KlassHandle(kl), true
		}
	}

	kl := klassCount.Load() + 1
	ftutil.Assert(kl <= maxKlasses, "fobj: too many klasses defined")

	reg := &klasses[kl]
	reg.name = name
	reg.nameHash = nameHash
	reg.size = size
	reg.parent = parent
	reg.hashNext = KlassHandle(klassesHash[bucket].Load())
	klassesHash[bucket].Store(kl)

	klassCount.Store(kl)

	for _, mi := range methodImpls {
		installImpl(KlassHandle(kl), mi.Method.Handle(), mi.Impl)
	}

	ref.h.Store(kl)
	return KlassHandle(kl), false
}

// KlassName returns the exact name bytes used at registration (spec.md
// §8, invariant 1).
func KlassName(k KlassHandle) string {
	ftutil.Assert(currentState() != notInitialized, "fobj: runtime not initialized")
	ftutil.DbgAssert(k != 0 && uint32(k) <= klassCount.Load(), "fobj: invalid klass handle")
	return klasses[k].name
}

// KlassParent returns the parent handle of k, or 0 for a root klass.
func KlassParent(k KlassHandle) KlassHandle {
	return klasses[k].parent
}
