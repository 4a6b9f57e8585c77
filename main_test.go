package fobj

import "testing"

// TestMain brings the package-global runtime up exactly once before any
// test runs, the way an embedding program's single Init call would —
// fobj's registries are process-wide state, not something a test can
// sandbox per-case.
func TestMain(m *testing.M) {
	Init()
	m.Run()
}
