// Package fingerprint provides the 128-bit value identity used to name units
// of cacheable work across engine sessions. A Fingerprint is just a bit
// pattern: it carries no pointers and no session-local state, so it can be
// serialized to disk and compared against fingerprints computed by a later,
// unrelated process.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"
)

// Size is the encoded width of a Fingerprint in bytes.
const Size = 16

// Fingerprint is an opaque 128-bit digest. The zero value is the canonical
// sentinel for "no parameters" and must never be produced by hashing real
// input.
type Fingerprint [2]uint64

// Zero is the canonical "no parameters" sentinel.
var Zero Fingerprint

// FromBytes decodes a Fingerprint from its 16-byte little-endian encoding.
func FromBytes(b [Size]byte) Fingerprint {
	return Fingerprint{
		binary.LittleEndian.Uint64(b[0:8]),
		binary.LittleEndian.Uint64(b[8:16]),
	}
}

// IsZero reports whether f is the no-parameters sentinel.
func (f Fingerprint) IsZero() bool {
	return f == Zero
}

// Bytes returns the 16-byte little-endian encoding of f. The encoding is
// fixed-width with no internal pointers, so node records can be bulk-copied
// between sessions without a fixup pass.
func (f Fingerprint) Bytes() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint64(b[0:8], f[0])
	binary.LittleEndian.PutUint64(b[8:16], f[1])
	return b
}

// Compare orders fingerprints structurally. The order has no semantic
// meaning; it exists so node sets can be sorted deterministically.
func (f Fingerprint) Compare(other Fingerprint) int {
	switch {
	case f[0] < other[0]:
		return -1
	case f[0] > other[0]:
		return 1
	case f[1] < other[1]:
		return -1
	case f[1] > other[1]:
		return 1
	default:
		return 0
	}
}

// combineConst is an arbitrary odd constant used to mix the two halves when
// combining fingerprints. Multiplication by an odd constant is a bijection
// on uint64, so combining never loses entropy from the receiver.
const combineConst = 0x9e3779b97f4a7c15

// Combine mixes another fingerprint into f, producing a new fingerprint that
// depends on both values and on their order.
func (f Fingerprint) Combine(other Fingerprint) Fingerprint {
	a := bits.RotateLeft64(f[0], 5) ^ other[0]
	b := bits.RotateLeft64(f[1], 7) ^ other[1]
	return Fingerprint{a * combineConst, b * combineConst}
}

// String renders f as 32 lowercase hex digits.
func (f Fingerprint) String() string {
	b := f.Bytes()
	return hex.EncodeToString(b[:])
}

// Short returns an abbreviated hex rendering for log output.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// Parse decodes the hex form produced by String.
func Parse(s string) (Fingerprint, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse fingerprint: %w", err)
	}
	if len(raw) != Size {
		return Zero, fmt.Errorf("parse fingerprint: want %d bytes, got %d", Size, len(raw))
	}
	var b [Size]byte
	copy(b[:], raw)
	return FromBytes(b), nil
}
