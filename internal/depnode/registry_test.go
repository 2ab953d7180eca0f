package depnode

import (
	"fmt"
	"sync"
	"testing"

	"incr/internal/fingerprint"
)

func anonNode(i int) DepNode[testKind] {
	return DepNode[testKind]{Kind: kindAnon, Hash: fingerprint.Fingerprint{uint64(i + 1), 99}}
}

func TestRegistryFirstWriterWins(t *testing.T) {
	r := NewDebugRegistry[testKind]()
	n := anonNode(0)

	r.Register(n, func() string { return "first" })
	r.Register(n, func() string { return "second" })

	label, ok := r.Lookup(n)
	if !ok {
		t.Fatal("label missing after registration")
	}
	if label != "first" {
		t.Errorf("label = %q, want first", label)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryLazyLabel(t *testing.T) {
	r := NewDebugRegistry[testKind]()
	n := anonNode(0)

	calls := 0
	r.Register(n, func() string { calls++; return "x" })
	r.Register(n, func() string { calls++; return "y" })

	if calls != 1 {
		t.Errorf("label computed %d times, want 1", calls)
	}
}

func TestRegistryConcurrentWriters(t *testing.T) {
	const goroutines = 32
	const perGoroutine = 64

	r := NewDebugRegistry[testKind]()
	shared := anonNode(1 << 20)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				n := anonNode(g*perGoroutine + i)
				r.Register(n, func() string { return fmt.Sprintf("g%d-i%d", g, i) })
				r.Register(shared, func() string { return fmt.Sprintf("shared-by-g%d", g) })
			}
		}(g)
	}
	wg.Wait()

	// No writer may have been lost.
	for g := 0; g < goroutines; g++ {
		for i := 0; i < perGoroutine; i++ {
			n := anonNode(g*perGoroutine + i)
			label, ok := r.Lookup(n)
			if !ok {
				t.Fatalf("entry for goroutine %d index %d lost", g, i)
			}
			if label != fmt.Sprintf("g%d-i%d", g, i) {
				t.Fatalf("entry for goroutine %d index %d corrupted: %q", g, i, label)
			}
		}
	}

	// The contended node has exactly one of the candidate labels.
	label, ok := r.Lookup(shared)
	if !ok {
		t.Fatal("contended entry lost")
	}
	if len(label) == 0 || label[:len("shared-by-g")] != "shared-by-g" {
		t.Fatalf("contended entry corrupted: %q", label)
	}

	if want := goroutines*perGoroutine + 1; r.Len() != want {
		t.Errorf("Len = %d, want %d", r.Len(), want)
	}
}
