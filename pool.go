package fobj

import (
	"github.com/fobjgo/fobj/internal/ftutil"
)

// Pool is an autorelease pool: objects handed to autorelease are kept
// alive and released, in reverse insertion order, when the pool itself
// is released (spec.md §6). Pools nest per goroutine, each one's parent
// being whichever pool was current when it was created.
//
// The original runtime backs a pool with a linked list of fixed-size
// chunks to bound any single allocation and avoid the cost of copying
// on growth; a Go slice already amortizes growth without a realloc-and-
// copy-everything step, so a single growable slice stands in for the
// chunk list here.
type Pool struct {
	objects []Object
	parent  *Pool
}

var currentPoolState ftutil.GoroutineLocal[*Pool]

// currentPool returns the calling goroutine's innermost pool, lazily
// creating a root pool on first use — every goroutine that touches fobj
// objects has at least one pool, even if it never calls PoolInit
// itself.
func currentPool() *Pool {
	p, ok := currentPoolState.Get()
	if !ok {
		p = &Pool{}
		currentPoolState.Set(p)
	}
	return p
}

// PoolInit pushes a new pool on top of the calling goroutine's pool
// stack and returns it. Grounded on ft_pg_autorelease_poolinit.
func PoolInit() *Pool {
	p := &Pool{parent: currentPool()}
	currentPoolState.Set(p)
	return p
}

// PoolRelease releases every object autoreleased into p since it was
// created, most-recently-added first, then pops p off the pool stack.
// It is a programmer error to release any pool other than the current
// top. Grounded on ft_pg_autorelease_poolrelease.
func PoolRelease(p *Pool) {
	ftutil.DbgAssert(currentPool() == p, "fobj: PoolRelease called on a pool that is not the current top")

	for i := len(p.objects) - 1; i >= 0; i-- {
		Release(p.objects[i])
	}
	p.objects = nil
	if p.parent == nil {
		// p was the goroutine's implicit root pool: clear the slot
		// entirely rather than storing a nil *Pool, so the next
		// currentPool() call sees "absent" and lazily creates a fresh
		// root instead of handing back a nil pointer.
		currentPoolState.Clear()
		return
	}
	currentPoolState.Set(p.parent)
}

// autorelease files obj into the calling goroutine's current pool,
// deferring its release to that pool's PoolRelease. Grounded on
// ft_pg_autorelease (fo_impl.c's deferred-release path, the same one
// fobj_unref and a fresh Alloc both feed into).
func autorelease(obj Object) Object {
	if isNilObject(obj) {
		return obj
	}
	p := currentPool()
	p.objects = append(p.objects, obj)
	return obj
}

// StoreToParentPool re-homes obj from the calling goroutine's current
// pool to that pool's parent, so obj survives the current pool's next
// PoolRelease — the operation a function uses to autorelease a value it
// is about to return to its caller's scope, rather than its own.
func StoreToParentPool(obj Object) Object {
	if isNilObject(obj) {
		return obj
	}
	p := currentPool()
	ftutil.Assert(p.parent != nil, "fobj: StoreToParentPool called with no parent pool")

	for i := len(p.objects) - 1; i >= 0; i-- {
		if p.objects[i] == obj {
			p.objects = append(p.objects[:i], p.objects[i+1:]...)
			break
		}
	}
	p.parent.objects = append(p.parent.objects, obj)
	return obj
}
