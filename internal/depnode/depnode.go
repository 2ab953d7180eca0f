// Package depnode defines the identity of one unit of cacheable work in the
// incremental engine's dependency graph. A DepNode is a (kind, fingerprint)
// pair: the kind names what category of work the node represents and the
// fingerprint is a 128-bit stable hash of the work's input parameters.
// Together they identify a node even across engine sessions, much like a git
// commit hash identifies a commit:
//
//   - a DepNode can be written to disk in one session and compared in a later
//     one without rebasing or retracing any session-local ids;
//   - it is a plain bit pattern, cheap to copy and free of pointers, so node
//     tables can be bulk-copied or memory-mapped;
//   - a DepNode can name things that no longer exist. Construction never
//     requires the referenced entity to be present in the current session,
//     which matters when files or definitions were deleted since the
//     previous run.
package depnode

import (
	"fmt"
	"strings"

	"incr/internal/fingerprint"
	"incr/internal/stablehash"
)

// Kind is the tag naming a category of work. The concrete catalog of kinds
// is owned by the engine; this package only relies on two static facts each
// kind carries: whether nodes of the kind take parameters at all, and
// whether the original query key can be rebuilt from a node of the kind.
type Kind interface {
	comparable

	// HasParams reports whether nodes of this kind carry parameters.
	// Parameterless kinds represent global concepts with a single value and
	// are always paired with the zero fingerprint.
	HasParams() bool

	// CanReconstructQueryKey reports whether the query key of a node of this
	// kind can, in principle, be recovered from the node alone. For many
	// kinds too much information is lost during fingerprint computation.
	CanReconstructQueryKey() bool

	String() string
}

// DepNode identifies one unit of cacheable work. Two DepNodes are the same
// identity iff both fields are equal, and that equality holds across
// sessions: hashing logically equal parameters in a different process, with
// different interning tables and a different evaluation order, yields the
// same pair. Immutable after construction.
type DepNode[K Kind] struct {
	Kind K
	Hash fingerprint.Fingerprint
}

// NewNoParams creates a parameterless DepNode. It panics if the kind
// actually requires parameters; pairing such a kind with the zero
// fingerprint would silently collapse distinct nodes into one identity.
func NewNoParams[K Kind](kind K) DepNode[K] {
	if kind.HasParams() {
		panic(fmt.Sprintf("depnode: NewNoParams called for parameterized kind %s", kind))
	}
	return DepNode[K]{Kind: kind}
}

// Construct builds the DepNode for one invocation of a query. The fingerprint
// comes from the parameter's identity source; the session only supplies the
// canonicalization context and, when node debugging is enabled, the registry
// that remembers labels for irrecoverable nodes.
//
// Construct is safe to call concurrently and cannot fail: every parameter
// type that reaches it proves at compile time, via its Source, that it can
// be fingerprinted.
func Construct[K Kind, T any](s *Session[K], kind K, src Source[K, T], arg T) DepNode[K] {
	hash := src.Fingerprint(s.hashCx, arg)
	node := DepNode[K]{Kind: kind, Hash: hash}

	if !kind.CanReconstructQueryKey() && s.debugNodes {
		s.registry.Register(node, func() string { return src.DebugString(s.hashCx, arg) })
	}

	return node
}

// Compare orders nodes by kind name, then fingerprint. The order is total
// and deterministic; only true duplicates tie.
func (n DepNode[K]) Compare(other DepNode[K]) int {
	if c := strings.Compare(n.Kind.String(), other.Kind.String()); c != 0 {
		return c
	}
	return n.Hash.Compare(other.Hash)
}

// String renders the node as KindName(fingerprint). Use Session.NodeString
// when a debug label for an irrecoverable node may be available.
func (n DepNode[K]) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.Hash.Short())
}

// Session carries the per-session facilities identity construction needs:
// the canonicalization context for stable hashing and the optional debug
// registry. It is threaded explicitly through call sites rather than living
// in package-level state, so two sessions in one process never share
// registries.
type Session[K Kind] struct {
	hashCx     *stablehash.Context
	debugNodes bool
	registry   *DebugRegistry[K]
}

// NewSession creates a session around the given canonicalization context.
// When debugNodes is true, constructing an irrecoverable node records a
// human-readable label for it in the session's registry.
func NewSession[K Kind](hashCx *stablehash.Context, debugNodes bool) *Session[K] {
	return &Session[K]{
		hashCx:     hashCx,
		debugNodes: debugNodes,
		registry:   NewDebugRegistry[K](),
	}
}

// HashContext returns the session's canonicalization context.
func (s *Session[K]) HashContext() *stablehash.Context { return s.hashCx }

// DebugNodes reports whether irrecoverable nodes are being tracked.
func (s *Session[K]) DebugNodes() bool { return s.debugNodes }

// DebugString returns the registered label for an irrecoverable node, if one
// was recorded in this session.
func (s *Session[K]) DebugString(n DepNode[K]) (string, bool) {
	return s.registry.Lookup(n)
}

// NodeString renders a node for diagnostics. Nodes whose key can be
// reconstructed print their fingerprint; irrecoverable nodes print their
// registered label when one exists, and "irrecoverable" otherwise.
func (s *Session[K]) NodeString(n DepNode[K]) string {
	if n.Kind.CanReconstructQueryKey() {
		return n.String()
	}
	if label, ok := s.registry.Lookup(n); ok {
		return fmt.Sprintf("%s(%s)", n.Kind, label)
	}
	return fmt.Sprintf("%s(irrecoverable)", n.Kind)
}
