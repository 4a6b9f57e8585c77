package ftutil

import (
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the numeric id Go prints at the head of a goroutine
// stack dump ("goroutine 123 [running]: ..."). There is no public,
// blessed API for this — goroutine-local storage simply does not exist
// in the language — but every goroutine-aware library that needs
// thread-confined state without threading a parameter through every call
// (test frameworks detecting cross-goroutine misuse, some tracing
// libraries) reaches for this same trick. It is kept behind this one
// narrow file specifically so the rest of the runtime never has to know
// how "current goroutine" is obtained.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	// b starts with "goroutine <id> ["
	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}
	i++
	j := i
	for j < len(b) && b[j] != ' ' {
		j++
	}
	id, err := strconv.ParseUint(string(b[i:j]), 10, 64)
	if err != nil {
		// Should not happen; fall back to a constant bucket rather than
		// panicking out of what is meant to be a best-effort lookup.
		return 0
	}
	return id
}

// GoroutineLocal is a minimal per-goroutine slot: a single mutable value
// keyed implicitly by the calling goroutine, the Go stand-in for the
// original runtime's pthread_key_t-based thread-local current-pool
// pointer.
type GoroutineLocal[T any] struct {
	mu sync.Mutex
	m  map[uint64]T
}

// Get returns the value stored for the calling goroutine, and whether one
// was present.
func (g *GoroutineLocal[T]) Get() (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.m[goroutineID()]
	return v, ok
}

// Set stores a value for the calling goroutine.
func (g *GoroutineLocal[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = make(map[uint64]T)
	}
	g.m[goroutineID()] = v
}

// Clear removes the value stored for the calling goroutine, so the map
// does not grow without bound as goroutines come and go.
func (g *GoroutineLocal[T]) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.m, goroutineID())
}
