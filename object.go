package fobj

import (
	"reflect"
	"sync/atomic"

	"github.com/fobjgo/fobj/internal/ftutil"
)

const headerMagic = 0x1234567890abcdef

const (
	flagDisposing uint32 = 1 << iota
	flagDisposed
)

// Header is the per-allocation header every fobj object carries,
// analogous to fobj_header_t (fo_impl.c lines 34-42): in the original C
// runtime it immediately precedes the user payload in memory; here it is
// simply the first embedded field of Base, which every klass struct
// embeds.
type Header struct {
	magic uint64
	klass KlassHandle
	rc    atomic.Int32
	flags atomic.Uint32
}

// Base is embedded by every object struct registered with KlassInit. It
// supplies the Object interface via fobjHeader.
type Base struct {
	Header
}

func (b *Base) fobjHeader() *Header { return &b.Header }

// Object is the universal handle type for an allocated fobj value — the
// Go stand-in for fobj_t (an opaque tagged pointer in the original). Any
// type embedding Base satisfies it automatically.
type Object interface {
	fobjHeader() *Header
}

// DisposeFn, ReprFn and FormatFn are the three method shapes the runtime
// itself knows about (spec.md §4.G): every other method declared through
// MethodImpl is opaque `any` to the dispatch core and is type-asserted
// back to its real signature by the caller of Dispatch.
type (
	DisposeFn func(self Object)
	ReprFn    func(self Object) *Str
	FormatFn  func(self Object, buf *ftutil.Buf, spec string)
)

// isNilObject reports whether obj is either the nil interface or an
// interface holding a typed nil pointer — Go's well-known gotcha where
// `obj == nil` is false for a non-nil interface wrapping a nil *T. The
// spec's null-handling semantics (spec.md §4.D, "If self_obj is null...")
// are phrased in terms of a single untyped null pointer, so the runtime
// has to paper over this Go-specific wrinkle at every boundary that
// accepts an Object.
func isNilObject(obj Object) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func atomicOr(a *atomic.Uint32, bits uint32) (old uint32) {
	for {
		old = a.Load()
		if old&bits == bits {
			return old
		}
		if a.CompareAndSwap(old, old|bits) {
			return old
		}
	}
}

// Alloc allocates a new object of the klass named by ref, with refcount
// 1, and autoreleases it into the calling goroutine's current pool
// (spec.md §4.E, "Allocate"). Unlike the original, there is no
// extra_size/init-bytes pair to thread through: Go structs declare their
// own variable-length fields (typically a []byte or slice), so a caller
// simply populates PT's fields directly after Alloc returns, the
// ordinary Go way.
func Alloc[T any, PT interface {
	*T
	Object
}](ref *KlassRef) PT {
	ftutil.Assert(currentState() != notInitialized, "fobj: runtime not initialized")
	handle := ref.Handle()
	ftutil.DbgAssert(handle != 0 && uint32(handle) <= klassCount.Load(), "fobj: invalid klass handle")

	obj := new(T)
	p := PT(obj)
	h := p.fobjHeader()
	h.magic = headerMagic
	h.klass = handle
	h.rc.Store(1)
	autorelease(p)
	return p
}

// Ref increments obj's reference count and returns it, the Go stand-in
// for fobj_ref.
func Ref(obj Object) Object {
	if isNilObject(obj) {
		return obj
	}
	h := obj.fobjHeader()
	ftutil.DbgAssert(h.magic == headerMagic, "fobj: corrupted object header")
	h.rc.Add(1)
	return obj
}

// Release immediately decrements obj's reference count; when it reaches
// zero and dispose has not already begun, obj enters the two-phase
// dispose chain. Grounded on fobj_release (fo_impl.c lines 514-537).
func Release(obj Object) {
	ftutil.Assert(currentState() != notInitialized, "fobj: runtime not initialized")
	if isNilObject(obj) {
		return
	}
	h := obj.fobjHeader()
	ftutil.DbgAssert(h.magic == headerMagic, "fobj: corrupted object header")

	if h.rc.Add(-1) != 0 {
		return
	}
	if h.flags.Load()&flagDisposing != 0 {
		return
	}
	doDispose(obj, h)
}

// Unref defers the release to the calling goroutine's current
// autorelease pool (fobj_unref).
func Unref(obj Object) Object {
	return autorelease(obj)
}

// Set assigns val into *ptr, ref-ing val and releasing the old value —
// ordered so that self-assignment (Set(ptr, *ptr)) is safe (fobj_set).
func Set(ptr *Object, val Object) {
	old := *ptr
	if !isNilObject(val) {
		*ptr = Ref(val)
	} else {
		*ptr = nil
	}
	if !isNilObject(old) {
		Release(old)
	}
}

// Swap assigns val into *ptr and returns the old value, autoreleased
// rather than released immediately (fobj_swap).
func Swap(ptr *Object, val Object) Object {
	old := *ptr
	if !isNilObject(val) {
		*ptr = Ref(val)
	} else {
		*ptr = nil
	}
	if isNilObject(old) {
		return nil
	}
	return autorelease(old)
}

// disposeChain invokes each klass's dispose hook from the object's
// concrete klass up to the root, skipping klasses with none. Grounded on
// fobj__dispose_req (fo_impl.c lines 487-497).
func disposeChain(obj Object, klass KlassHandle) {
	for klass != 0 {
		reg := &klasses[klass]
		if fn := reg.dispose.Load(); fn != nil {
			(*fn)(obj)
		}
		klass = reg.parent
	}
}

// doDispose runs the two-phase dispose protocol (spec.md §4.E): setting
// DISPOSING is the one-time gate against recursive/concurrent re-entry;
// dispose hooks run child-to-root; DISPOSED is set last. A strong
// reference taken by a dispose hook (resurrection) is allowed to extend
// the object's apparent lifetime, but DISPOSED stays set regardless —
// Dispatch/DispatchSuper/Implements (dispatch.go's requireLive) refuse
// any further method call on the object once it is set, and Disposed(obj)
// lets a caller check it directly. Unlike the original, there is no
// explicit free step: Go's garbage collector reclaims the
// allocation once nothing still references it, so "dispose runs exactly
// once" rather than "memory is freed exactly once" is the guarantee this
// function provides. Grounded on fobj__do_dispose (fo_impl.c lines
// 499-512).
func doDispose(obj Object, h *Header) {
	old := atomicOr(&h.flags, flagDisposing)
	if old&flagDisposing != 0 {
		return
	}
	disposeChain(obj, h.klass)
	atomicOr(&h.flags, flagDisposed)
}

// RealKlassOf returns obj's concrete klass handle (fobj_real_klass_of).
func RealKlassOf(obj Object) KlassHandle {
	ftutil.Assert(currentState() != notInitialized, "fobj: runtime not initialized")
	ftutil.Assert(!isNilObject(obj), "fobj: RealKlassOf called on nil object")
	return obj.fobjHeader().klass
}

// Disposed reports whether obj has completed its dispose chain.
func Disposed(obj Object) bool {
	return obj.fobjHeader().flags.Load()&flagDisposed != 0
}
