// Package stablehash provides the deterministic accumulator that turns query
// parameters into fingerprints. The resulting digests depend only on the
// logical content fed into the hasher: never on pointer values, map
// iteration order, interning tables, or which goroutine ran the computation.
// Hashing the same value in two different processes yields bit-identical
// fingerprints, which is what makes cross-session cache reuse sound.
package stablehash

import (
	"crypto/sha256"
	"hash"
	"math"

	"incr/internal/fingerprint"
)

// Hasher accumulates values into a deterministic 128-bit digest.
//
// Variable-length values are always length-prefixed. Because one accumulator
// stream may carry many values back to back, an unprefixed encoding would
// make ("ab","c") and ("a","bc") indistinguishable.
type Hasher struct {
	h   hash.Hash
	buf [8]byte
}

// New returns a fresh accumulator.
func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (s *Hasher) writeUint64(v uint64) {
	s.buf[0] = byte(v)
	s.buf[1] = byte(v >> 8)
	s.buf[2] = byte(v >> 16)
	s.buf[3] = byte(v >> 24)
	s.buf[4] = byte(v >> 32)
	s.buf[5] = byte(v >> 40)
	s.buf[6] = byte(v >> 48)
	s.buf[7] = byte(v >> 56)
	s.h.Write(s.buf[:8])
}

// Uint64 accumulates a fixed-width integer.
func (s *Hasher) Uint64(v uint64) { s.writeUint64(v) }

// Uint32 accumulates a fixed-width integer.
func (s *Hasher) Uint32(v uint32) { s.writeUint64(uint64(v)) }

// Uint16 accumulates a fixed-width integer.
func (s *Hasher) Uint16(v uint16) { s.writeUint64(uint64(v)) }

// Uint8 accumulates a single byte value.
func (s *Hasher) Uint8(v uint8) { s.writeUint64(uint64(v)) }

// Int accumulates a signed integer.
func (s *Hasher) Int(v int) { s.writeUint64(uint64(int64(v))) }

// Int64 accumulates a signed integer.
func (s *Hasher) Int64(v int64) { s.writeUint64(uint64(v)) }

// Bool accumulates a boolean as a full-width word.
func (s *Hasher) Bool(v bool) {
	if v {
		s.writeUint64(1)
	} else {
		s.writeUint64(0)
	}
}

// Float64 accumulates the IEEE-754 bit pattern of v.
func (s *Hasher) Float64(v float64) { s.writeUint64(math.Float64bits(v)) }

// Bytes accumulates a variable-length byte slice, length first.
func (s *Hasher) Bytes(b []byte) {
	s.writeUint64(uint64(len(b)))
	s.h.Write(b)
}

// String accumulates a string, length first.
func (s *Hasher) String(v string) {
	s.writeUint64(uint64(len(v)))
	s.h.Write([]byte(v))
}

// Fingerprint accumulates an already-computed fingerprint.
func (s *Hasher) Fingerprint(f fingerprint.Fingerprint) {
	s.writeUint64(f[0])
	s.writeUint64(f[1])
}

// Finish extracts the accumulated digest. The hasher must not be reused
// afterwards.
func (s *Hasher) Finish() fingerprint.Fingerprint {
	sum := s.h.Sum(nil)
	var b [fingerprint.Size]byte
	copy(b[:], sum[:fingerprint.Size])
	return fingerprint.FromBytes(b)
}

// Hashable is implemented by every parameter type that can be turned into a
// fingerprint. Types without a content identity (pure anonymous markers)
// simply do not implement it, which keeps them out of any code path that
// needs a fingerprint.
type Hashable interface {
	HashStable(cx *Context, h *Hasher)
}

// Of hashes a single value with a fresh accumulator and finalizes it.
func Of(cx *Context, v Hashable) fingerprint.Fingerprint {
	h := New()
	v.HashStable(cx, h)
	return h.Finish()
}
