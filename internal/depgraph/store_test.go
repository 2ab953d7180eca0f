package depgraph

import (
	"fmt"
	"testing"

	"incr/internal/depnode"
	"incr/internal/fingerprint"
	"incr/internal/logging"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir(), logging.NewDiscard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionLifecycle(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.BeginSession()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	sessions, err := store.Sessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != id {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if sessions[0].FinishedAt != nil {
		t.Error("fresh session already finished")
	}

	if err := store.FinishSession(id); err != nil {
		t.Fatalf("finish: %v", err)
	}
	sessions, err = store.Sessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if sessions[0].FinishedAt == nil {
		t.Error("finished session has no finish time")
	}

	if err := store.FinishSession("no-such-session"); err == nil {
		t.Error("expected error finishing unknown session")
	}
}

func TestNodeTableRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.BeginSession()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	nodes := sampleNodes(50)
	if err := store.SaveNodes(id, nodes); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Nodes(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(nodes) {
		t.Fatalf("got %d nodes, want %d", len(got), len(nodes))
	}
	for i := range nodes {
		if got[i] != nodes[i] {
			t.Fatalf("node %d changed: %v vs %v", i, got[i], nodes[i])
		}
	}

	counts, err := store.KindCounts(id)
	if err != nil {
		t.Fatalf("kind counts: %v", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != len(nodes) {
		t.Errorf("kind counts sum to %d, want %d", total, len(nodes))
	}

	// Saving again replaces, not appends.
	if err := store.SaveNodes(id, nodes[:10]); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	got, err = store.Nodes(id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("got %d nodes after re-save, want 10", len(got))
	}
}

func TestEdgesRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.BeginSession()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	edges := []Edge{{From: 0, To: 1}, {From: 0, To: 2}, {From: 2, To: 1}}
	if err := store.SaveEdges(id, edges); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Edges(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(edges) {
		t.Fatalf("got %d edges, want %d", len(got), len(edges))
	}
	for i := range edges {
		if got[i] != edges[i] {
			t.Fatalf("edge %d changed: %v vs %v", i, got[i], edges[i])
		}
	}
}

func TestWorkProducts(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.BeginSession()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	wp := WorkProduct{
		ID:       depnode.WorkProductFromUnitName("cgu.0"),
		UnitName: "cgu.0",
		Path:     "target/incr/cgu.0.o",
	}
	if err := store.PutWorkProduct(id, wp); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Re-recording the same id updates the path.
	wp.Path = "target/incr/cgu.0.v2.o"
	if err := store.PutWorkProduct(id, wp); err != nil {
		t.Fatalf("re-put: %v", err)
	}

	products, err := store.WorkProducts(id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d work products, want 1", len(products))
	}
	if products[0].ID != wp.ID || products[0].Path != wp.Path {
		t.Errorf("work product changed: %+v", products[0])
	}
}

// storeKind is a tiny kind catalog for exercising the typed graph helpers.
type storeKind uint8

const (
	skFile storeKind = iota
	skModule
)

func (k storeKind) HasParams() bool              { return true }
func (k storeKind) CanReconstructQueryKey() bool { return k == skFile }

func (k storeKind) String() string {
	if k == skFile {
		return "File"
	}
	return "Module"
}

type storeCodec struct{}

func (storeCodec) Discriminant(k storeKind) (uint16, error) {
	return uint16(k), nil
}

func (storeCodec) Kind(disc uint16) (storeKind, error) {
	if disc > uint16(skModule) {
		return 0, fmt.Errorf("unknown kind discriminant %d", disc)
	}
	return storeKind(disc), nil
}

func TestTypedGraphRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.BeginSession()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	nodes := []depnode.DepNode[storeKind]{
		{Kind: skFile, Hash: fingerprint.Fingerprint{1, 2}},
		{Kind: skModule, Hash: fingerprint.Fingerprint{3, 4}},
	}
	if err := SaveGraph(store, id, storeCodec{}, nodes); err != nil {
		t.Fatalf("save graph: %v", err)
	}

	got, err := LoadGraph[storeKind](store, id, storeCodec{})
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}
	if len(got) != len(nodes) {
		t.Fatalf("got %d nodes, want %d", len(got), len(nodes))
	}
	for i := range nodes {
		if got[i] != nodes[i] {
			t.Fatalf("node %d changed: %v vs %v", i, got[i], nodes[i])
		}
	}
}

func TestDecodeUnknownDiscriminant(t *testing.T) {
	raw := []RawNode{{Kind: 999, Hash: fingerprint.Fingerprint{1, 1}}}
	if _, err := Decode[storeKind](storeCodec{}, raw); err == nil {
		t.Error("expected error for unknown discriminant")
	}
}
