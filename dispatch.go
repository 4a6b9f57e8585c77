package fobj

import "github.com/fobjgo/fobj/internal/ftutil"

// findImpl walks klass up to the root looking for an impl of method,
// returning the impl and the klass that actually installed it (the
// "home" klass — the starting point for a super-call). Grounded on
// fobj_method_search (fo_impl.c lines 165-183).
func findImpl(method MethodHandle, klass KlassHandle) (impl any, home KlassHandle) {
	for k := klass; k != 0; k = klasses[k].parent {
		if found := searchImpl(method, k); found != nil {
			return found, k
		}
	}
	return nil, 0
}

// isAncestor reports whether ancestor appears in klass's parent chain,
// klass itself included.
func isAncestor(ancestor, klass KlassHandle) bool {
	for k := klass; k != 0; k = klasses[k].parent {
		if k == ancestor {
			return true
		}
	}
	return false
}

// requireLive verifies obj's header before any dispatch proceeds: the
// magic must be intact, and DISPOSED must not be set. The original's
// fobj_method_search (fo_impl.c lines 183-203) gates every lookup behind
// an *unconditional* ft_assert on FOBJ_DISPOSED — once an object is
// disposed, no method may be invoked on it again (spec.md §3, §4.D) —
// so this uses Assert, not DbgAssert, for the DISPOSED check.
func requireLive(h *Header) {
	ftutil.DbgAssert(h.magic == headerMagic, "fobj: corrupted object header")
	ftutil.Assert(h.flags.Load()&flagDisposed == 0, "fobj: method dispatch on a disposed object")
}

// Implements reports whether obj's klass (or an ancestor) has installed
// an implementation of method. A nil object implements nothing. Grounded
// on fobj_method_implements (fo_impl.c lines 185-193).
func Implements(obj Object, method *MethodRef) bool {
	if isNilObject(obj) {
		return false
	}
	h := obj.fobjHeader()
	requireLive(h)
	impl, _ := findImpl(method.Handle(), h.klass)
	return impl != nil
}

// Dispatch looks up obj's implementation of method and type-asserts it
// to F, the concrete function signature the caller expects (e.g.
// func(Object, *ftutil.Buf, string) for a Format-shaped method). ok is
// false if no klass in obj's ancestry implements method, or if the
// installed impl does not have shape F — the latter would indicate a
// mismatched MethodImpl registration, not something a caller should
// normally need to handle.
func Dispatch[F any](obj Object, method *MethodRef) (fn F, ok bool) {
	if isNilObject(obj) {
		return fn, false
	}
	h := obj.fobjHeader()
	requireLive(h)

	mh := method.Handle()
	ftutil.DbgAssert(mh != 0, "fobj: dispatch on unregistered method")

	impl, _ := findImpl(mh, h.klass)
	if impl == nil {
		return fn, false
	}
	fn, ok = impl.(F)
	return fn, ok
}

// DispatchSuper looks up the next implementation of method above
// fromKlass in obj's ancestry — the operation a method body uses to
// invoke its parent's override of itself, rather than recursing back
// into its own. fromKlass must be obj's concrete klass or one of its
// ancestors; in debug builds this is verified, mirroring the
// changeCounter-guarded retry the teacher uses around concurrent inode
// mutation (nodefs/inode.go's lockNodes/sortNodes pattern) — here the
// impl tables are append-only once published, so no retry loop is
// needed, only the one-time ancestry check.
func DispatchSuper[F any](obj Object, method *MethodRef, fromKlass KlassHandle) (fn F, ok bool) {
	if isNilObject(obj) {
		return fn, false
	}
	h := obj.fobjHeader()
	requireLive(h)
	ftutil.DbgAssert(isAncestor(fromKlass, h.klass), "fobj: DispatchSuper fromKlass is not an ancestor of obj's klass")

	mh := method.Handle()
	ftutil.DbgAssert(mh != 0, "fobj: dispatch on unregistered method")

	parent := klasses[fromKlass].parent
	if parent == 0 {
		return fn, false
	}
	impl, _ := findImpl(mh, parent)
	if impl == nil {
		return fn, false
	}
	fn, ok = impl.(F)
	return fn, ok
}

// HomeKlass returns the klass in obj's ancestry that actually installed
// its implementation of method — the klass a method body should pass as
// fromKlass to DispatchSuper when calling its own super.
func HomeKlass(obj Object, method *MethodRef) KlassHandle {
	if isNilObject(obj) {
		return 0
	}
	_, home := findImpl(method.Handle(), obj.fobjHeader().klass)
	return home
}
