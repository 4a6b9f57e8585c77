package fobj

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// globalState is the runtime's one-way state machine: NOT_INITIALIZED ->
// INITIALIZED -> FROZEN (spec.md §5). All dispatch and allocation assert
// state != notInitialized; all new klass/method/impl registrations
// assert state == initialized.
type globalState int32

const (
	notInitialized globalState = iota
	initialized
	frozen
)

var (
	// runtimeMu is the single process-wide mutex guarding all mutations
	// of the klass/method/impl tables (spec.md §5). Modeled directly on
	// rawBridge.mu in the teacher's nodefs/bridge.go: "mu protects the
	// following data... locks for inodes must be taken before
	// rawBridge.mu" — here, the equivalent ordering rule is that
	// runtimeMu is never taken from inside a dispose hook.
	runtimeMu sync.Mutex

	state atomic.Int32
)

// log is the package-level structured logger, used only for the one
// non-fatal diagnostic spec.md calls for (PrintKV's "ident not found"
// warning, format.go). It defaults to a no-op logger so embedding an
// application doesn't get unsolicited output; call SetLogger to observe
// it.
var log = zerolog.Nop()

// SetLogger installs the logger used for non-fatal runtime diagnostics.
func SetLogger(l zerolog.Logger) { log = l }

func currentState() globalState {
	return globalState(state.Load())
}

// Init transitions the runtime from NOT_INITIALIZED to INITIALIZED: it
// must be called exactly once per process before any other runtime
// operation. It registers the built-in klasses (Base, Err, Str, Int,
// UInt, Float, Bool) and the well-known methods (Dispose, Repr, Format).
func Init() {
	if !state.CompareAndSwap(int32(notInitialized), int32(initialized)) {
		panic("fobj: Init called more than once")
	}

	registerWellKnownMethods()
	registerBuiltinKlasses()
	initBoolSingletons()
}

// Freeze performs the one-way INITIALIZED -> FROZEN transition. After
// Freeze, no new klass, method, or impl may be registered; allocation and
// dispatch remain permitted (spec.md §3, "Freeze").
func Freeze() {
	state.CompareAndSwap(int32(initialized), int32(frozen))
}
