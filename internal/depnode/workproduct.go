package depnode

import (
	"incr/internal/fingerprint"
	"incr/internal/stablehash"
)

// WorkProductID identifies a build artifact (an object file or similar)
// saved between runs. It is deliberately a distinct type from a DepNode
// hash: a work product is keyed by an independent name that persists across
// sessions, not by a query's parameters, and the two must not mix.
type WorkProductID struct {
	hash fingerprint.Fingerprint
}

// WorkProductFromUnitName derives the id from a codegen-unit name. The name
// is hashed length-first, so distinct decompositions of concatenated names
// can never collide with each other.
func WorkProductFromUnitName(name string) WorkProductID {
	h := stablehash.New()
	h.String(name)
	return WorkProductID{hash: h.Finish()}
}

// WorkProductFromFingerprint wraps an already-computed fingerprint directly.
func WorkProductFromFingerprint(f fingerprint.Fingerprint) WorkProductID {
	return WorkProductID{hash: f}
}

// Fingerprint returns the underlying digest.
func (w WorkProductID) Fingerprint() fingerprint.Fingerprint { return w.hash }

// Compare orders ids structurally.
func (w WorkProductID) Compare(other WorkProductID) int {
	return w.hash.Compare(other.hash)
}

func (w WorkProductID) String() string { return w.hash.String() }

// HashStable feeds the id into an accumulator, letting work products appear
// inside larger hashed values.
func (w WorkProductID) HashStable(_ *stablehash.Context, h *stablehash.Hasher) {
	h.Fingerprint(w.hash)
}
