package depnode

import (
	"fmt"

	"incr/internal/fingerprint"
	"incr/internal/stablehash"
)

// Source describes how values of one parameter type map to fingerprints and,
// where possible, back again. Recoverability is declared per type, never
// inferred: a fingerprint alone is not enough information to invert in
// general, so a type must explicitly implement recovery for it to exist.
type Source[K Kind, T any] interface {
	// CanReconstruct reports whether Recover can ever succeed for this
	// parameter type. It is a static fact with no side effects, letting the
	// engine skip recovery attempts entirely for derived nodes.
	CanReconstruct() bool

	// Fingerprint computes the deterministic 128-bit identity of arg. It
	// must be a pure function of arg and the (read-only) canonicalization
	// context.
	Fingerprint(cx *stablehash.Context, arg T) fingerprint.Fingerprint

	// DebugString renders arg for diagnostics. Best effort only.
	DebugString(cx *stablehash.Context, arg T) string

	// Recover attempts to rebuild the original parameter value from a node.
	// Returning false is a valid, expected outcome, not an error: the caller
	// falls back to treating the node as changed instead of forcing it.
	Recover(cx *stablehash.Context, node DepNode[K]) (T, bool)
}

// HashSource is the default Source for any stable-hashable parameter type:
// fingerprint by hashing with a fresh accumulator, no recovery. Types that
// need recovery provide their own Source instead of this one.
//
// Anonymous marker types without a content identity do not implement
// stablehash.Hashable and therefore cannot instantiate HashSource at all;
// misuse is a compile error rather than a runtime failure.
type HashSource[K Kind, T stablehash.Hashable] struct{}

// CanReconstruct always reports false for the default source.
func (HashSource[K, T]) CanReconstruct() bool { return false }

// Fingerprint hashes arg with a fresh accumulator and finalizes it.
func (HashSource[K, T]) Fingerprint(cx *stablehash.Context, arg T) fingerprint.Fingerprint {
	return stablehash.Of(cx, arg)
}

// DebugString renders arg with its own formatting.
func (HashSource[K, T]) DebugString(_ *stablehash.Context, arg T) string {
	return fmt.Sprintf("%v", arg)
}

// Recover never succeeds for the default source.
func (HashSource[K, T]) Recover(_ *stablehash.Context, _ DepNode[K]) (T, bool) {
	var zero T
	return zero, false
}

// Unit is the empty parameter of parameterless queries.
type Unit struct{}

// UnitSource is the trivial Source for parameterless queries: the
// fingerprint is always zero and recovery always succeeds.
type UnitSource[K Kind] struct{}

// CanReconstruct always reports true; there is nothing to lose.
func (UnitSource[K]) CanReconstruct() bool { return true }

// Fingerprint returns the zero sentinel unconditionally.
func (UnitSource[K]) Fingerprint(_ *stablehash.Context, _ Unit) fingerprint.Fingerprint {
	return fingerprint.Zero
}

// DebugString renders the empty parameter.
func (UnitSource[K]) DebugString(_ *stablehash.Context, _ Unit) string { return "()" }

// Recover trivially succeeds.
func (UnitSource[K]) Recover(_ *stablehash.Context, _ DepNode[K]) (Unit, bool) {
	return Unit{}, true
}
