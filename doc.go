// Package fobj implements a small dynamic object runtime: a registry of
// klasses and methods, single-inheritance virtual dispatch, reference
// counted object lifetimes with a two-phase dispose protocol, and
// per-goroutine autorelease pools that defer releases to scope
// boundaries.
//
// A handful of built-in value objects (Str, Int, UInt, Float, Bool, Err)
// are registered automatically by Init and are used throughout the
// runtime's own formatting and error-reporting machinery.
package fobj
