package depnode

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const registryShards = 16

// DebugRegistry remembers human-readable labels for nodes whose parameters
// cannot be recovered from their fingerprint. It exists purely for
// diagnostics: caching and correctness logic never read it, and it is
// rebuilt fresh each session rather than persisted.
//
// The map is sharded so that concurrent query workers registering different
// nodes rarely contend on the same lock.
type DebugRegistry[K Kind] struct {
	shards [registryShards]registryShard[K]
}

type registryShard[K Kind] struct {
	mu     sync.RWMutex
	labels map[DepNode[K]]string
}

// NewDebugRegistry returns an empty registry.
func NewDebugRegistry[K Kind]() *DebugRegistry[K] {
	r := &DebugRegistry[K]{}
	for i := range r.shards {
		r.shards[i].labels = make(map[DepNode[K]]string)
	}
	return r
}

func (r *DebugRegistry[K]) shard(n DepNode[K]) *registryShard[K] {
	b := n.Hash.Bytes()
	return &r.shards[xxhash.Sum64(b[:])%registryShards]
}

// Register records a label for node unless one is already present. The label
// is computed lazily: first writer wins, and later registrations for the
// same node never invoke their label function. Safe for concurrent use.
func (r *DebugRegistry[K]) Register(node DepNode[K], label func() string) {
	s := r.shard(node)

	s.mu.RLock()
	_, ok := s.labels[node]
	s.mu.RUnlock()
	if ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.labels[node]; !ok {
		s.labels[node] = label()
	}
}

// Lookup returns the label registered for node, if any.
func (r *DebugRegistry[K]) Lookup(node DepNode[K]) (string, bool) {
	s := r.shard(node)
	s.mu.RLock()
	defer s.mu.RUnlock()
	label, ok := s.labels[node]
	return label, ok
}

// Len returns the number of registered labels.
func (r *DebugRegistry[K]) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.labels)
		s.mu.RUnlock()
	}
	return n
}
