package fobj

import (
	"reflect"
	"sync/atomic"

	"github.com/fobjgo/fobj/internal/ftutil"
)

// implIndex identifies one (klass, method, impl) entry: a non-zero
// integer <= 32767.
type implIndex uint16

// implRecord is the Go translation of fobj_method_impl_t (fo_impl.c
// lines 71-77). Once written, a slot's fields never change — readers
// reach a slot only by following an atomically-published head index,
// and the goroutine that publishes it writes the slot's fields first, so
// under Go's memory model those writes happen-before any reader's load
// of the index, exactly the
// discipline the original runtime documents for its own
// release-store/acquire-load pairs.
type implRecord struct {
	method        MethodHandle
	klass         KlassHandle
	nextForMethod implIndex
	nextForKlass  implIndex
	impl          any
}

var (
	impls     [maxImpls + 1]implRecord
	implCount atomic.Uint32
)

// searchImpl returns the impl installed directly on klass for method, or
// nil if klass itself (not an ancestor) has none. Grounded on
// fobj_search_impl (fo_impl.c lines 151-163).
func searchImpl(method MethodHandle, klass KlassHandle) any {
	i := implIndex(klasses[klass].partitionHeads[uint16(method)%partitions].Load())
	for i != 0 {
		rec := &impls[i]
		if rec.method == method {
			return rec.impl
		}
		i = rec.nextForKlass
	}
	return nil
}

// installImpl appends a new impl entry and links it into both the
// per-klass-partition list and the per-method list. Re-installing the
// same (klass, method, impl) tuple is a no-op; installing a different
// impl for an already-implemented (klass, method) pair is a fatal
// programmer error in debug builds. Grounded on
// fobj_method_register_priv (fo_impl.c lines 376-410). Caller must hold
// runtimeMu.
func installImpl(klass KlassHandle, method MethodHandle, impl any) {
	kreg := &klasses[klass]
	mreg := &methods[method]

	if existing := searchImpl(method, klass); existing != nil {
		ftutil.DbgAssert(sameFunc(existing, impl), "fobj: method %s.%s redeclared with a different implementation", kreg.name, mreg.name)
		return
	}

	nom := implCount.Load() + 1
	ftutil.Assert(nom <= maxImpls, "fobj: too many method implementations defined")

	rec := &impls[nom]
	rec.method = method
	rec.klass = klass
	rec.nextForMethod = implIndex(mreg.first.Load())
	rec.nextForKlass = implIndex(kreg.partitionHeads[uint16(method)%partitions].Load())
	rec.impl = impl

	mreg.first.Store(uint32(nom))
	kreg.partitionHeads[uint16(method)%partitions].Store(uint32(nom))

	if method == MethDispose.Handle() {
		fn := impl.(DisposeFn)
		kreg.dispose.Store(&fn)
	}

	implCount.Store(uint32(nom))
}

// InstallImpl installs impl as klass's implementation of method, outside
// of klass registration (spec.md §4.C, "Installation"). It acquires
// runtimeMu itself, unlike installImpl.
func InstallImpl(klass KlassHandle, method MethodHandle, impl any) {
	ftutil.Assert(currentState() == initialized, "fobj: impl installation requires an initialized runtime")
	ftutil.DbgAssert(method != 0 && uint32(method) <= methodCount.Load(), "fobj: invalid method handle")
	ftutil.DbgAssert(klass != 0 && uint32(klass) <= klassCount.Load(), "fobj: invalid klass handle")

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	installImpl(klass, method, impl)
}

// sameFunc reports whether two impl values refer to the same underlying
// function. Go function values aren't comparable with ==, but their
// reflect.Value pointers are, which is all the idempotency check needs.
func sameFunc(a, b any) bool {
	return funcPointer(a) == funcPointer(b)
}

func funcPointer(f any) uintptr {
	return reflect.ValueOf(f).Pointer()
}
