// Package depgraph persists dependency-node identities between engine
// sessions. It stores node tables, edges, and saved work products; deciding
// when to re-run a query stays with the engine.
package depgraph

import (
	"encoding/binary"
	"fmt"

	"incr/internal/depnode"
	"incr/internal/fingerprint"
)

// RawNode is the serialized shape of a node: a stable kind discriminant plus
// the 16-byte fingerprint. Records are fixed-width and pointer-free, so a
// node table can be bulk-copied between sessions unchanged.
type RawNode struct {
	Kind uint16
	Hash fingerprint.Fingerprint
}

// RecordSize is the encoded width of one node record in bytes.
const RecordSize = 2 + fingerprint.Size

func (n RawNode) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, n.Kind)
	h := n.Hash.Bytes()
	return append(b, h[:]...)
}

func decodeRecord(b []byte) RawNode {
	var h [fingerprint.Size]byte
	copy(h[:], b[2:RecordSize])
	return RawNode{
		Kind: binary.LittleEndian.Uint16(b[:2]),
		Hash: fingerprint.FromBytes(h),
	}
}

// Codec maps the engine's kind tags to the stable discriminants used on
// disk. Discriminants must not change meaning between sessions; renumbering
// them invalidates every stored node table.
type Codec[K depnode.Kind] interface {
	Discriminant(kind K) (uint16, error)
	Kind(disc uint16) (K, error)
}

// Encode lowers typed nodes to their serialized records.
func Encode[K depnode.Kind](codec Codec[K], nodes []depnode.DepNode[K]) ([]RawNode, error) {
	raw := make([]RawNode, 0, len(nodes))
	for _, n := range nodes {
		disc, err := codec.Discriminant(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("encode node %s: %w", n, err)
		}
		raw = append(raw, RawNode{Kind: disc, Hash: n.Hash})
	}
	return raw, nil
}

// Decode lifts serialized records back to typed nodes.
func Decode[K depnode.Kind](codec Codec[K], raw []RawNode) ([]depnode.DepNode[K], error) {
	nodes := make([]depnode.DepNode[K], 0, len(raw))
	for _, r := range raw {
		kind, err := codec.Kind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("decode node record (disc %d): %w", r.Kind, err)
		}
		nodes = append(nodes, depnode.DepNode[K]{Kind: kind, Hash: r.Hash})
	}
	return nodes, nil
}
