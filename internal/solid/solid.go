// internal/solid/solid.go

// Package solid holds the presence/absence snapshot of a count table: one bit
// per canonical address, set when the count reached a threshold.
package solid

import (
	"math/bits"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/count"
	"github.com/natir/pcon/internal/kmer"
	"golang.org/x/exp/constraints"
)

// Set is a bit-packed []bool over the canonical address space. Bit a is bit
// a&7 (least significant first) of byte a>>3.
type Set struct {
	k    uint8
	n    uint64
	bits []byte
}

// New returns an empty set for k; k is normalized as for count tables.
func New(k uint8) *Set {
	if k == 0 {
		panic(errors.AssertionFailedf("solid: k must be at least 1"))
	}
	k = kmer.NormalizeK(k)
	n := kmer.AddressSpaceSize(k)
	return &Set{k: k, n: n, bits: make([]byte, ByteLen(k))}
}

// ByteLen is the size of the packed bits for k.
func ByteLen(k uint8) uint64 { return (kmer.AddressSpaceSize(k) + 7) / 8 }

// FromTable marks every address whose count is at least threshold.
func FromTable[T constraints.Unsigned](t *count.Table[T], threshold T) *Set {
	s := New(t.K())
	for a, c := range t.Raw() {
		if c >= threshold {
			s.bits[a>>3] |= 1 << (a & 7)
		}
	}
	return s
}

// FromRaw wraps packed bits read from storage. raw must hold exactly
// ByteLen(k) bytes.
func FromRaw(k uint8, raw []byte) (*Set, error) {
	if k == 0 || k > kmer.MaxK || k&1 == 0 {
		return nil, errors.Newf("solid: invalid k %d", k)
	}
	if uint64(len(raw)) != ByteLen(k) {
		return nil, errors.Newf("solid: %d bytes for k=%d, want %d", len(raw), k, ByteLen(k))
	}
	return &Set{k: k, n: kmer.AddressSpaceSize(k), bits: raw}, nil
}

// K returns the k-mer size.
func (s *Set) K() uint8 { return s.k }

// Len returns the number of addresses, 2^(2k-1).
func (s *Set) Len() uint64 { return s.n }

// Raw returns the packed bits. Callers must not modify them.
func (s *Set) Raw() []byte { return s.bits }

// Get reports whether a k-mer code, in either orientation, is solid.
func (s *Set) Get(code uint64) bool { return s.getRaw(kmer.AddressOf(code, s.k)) }

// GetCanonic is Get for a canonical code.
func (s *Set) GetCanonic(canonical uint64) bool { return s.getRaw(kmer.Address(canonical)) }

// Set marks or clears a k-mer code.
func (s *Set) Set(code uint64, v bool) { s.setRaw(kmer.AddressOf(code, s.k), v) }

// SetCanonic is Set for a canonical code.
func (s *Set) SetCanonic(canonical uint64, v bool) { s.setRaw(kmer.Address(canonical), v) }

// Count returns the number of solid addresses.
func (s *Set) Count() uint64 {
	var n int
	for _, b := range s.bits {
		n += bits.OnesCount8(b)
	}
	return uint64(n)
}

func (s *Set) getRaw(a uint64) bool {
	if a >= s.n {
		panic(errors.AssertionFailedf("solid: address %d out of range", errors.Safe(a)))
	}
	return s.bits[a>>3]&(1<<(a&7)) != 0
}

func (s *Set) setRaw(a uint64, v bool) {
	if a >= s.n {
		panic(errors.AssertionFailedf("solid: address %d out of range", errors.Safe(a)))
	}
	if v {
		s.bits[a>>3] |= 1 << (a & 7)
	} else {
		s.bits[a>>3] &^= 1 << (a & 7)
	}
}
