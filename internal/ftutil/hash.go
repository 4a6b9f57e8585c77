package ftutil

import "hash/fnv"

// SmallHash returns a 32-bit hash of a short identifier string, used to
// bucket klass and method names in the runtime's open-chained registry
// tables. No third-party small-string hash appears anywhere in the
// retrieval pack for this kind of narrow, non-cryptographic bucketing
// job; FNV-1a from the standard library is the conventional answer.
func SmallHash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}
