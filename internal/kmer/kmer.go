// internal/kmer/kmer.go

// Package kmer holds the 2-bit nucleotide encoding used by every count table.
//
// Bases are packed two bits each, first base in the most significant
// position: A=00, C=01, T=10, G=11, computed as (b>>1)&3 so lowercase letters
// map like uppercase ones and any other byte (N, IUPAC codes, ...) lands on
// some code (N maps to G). Complementing a base flips its high bit.
//
// For odd k a k-mer and its reverse complement always have opposite popcount
// parity. The canonical member of the pair is the one with even parity and
// its address in a count table is canonical>>1, which makes the address space
// exactly half of the code space. This contract fixes the on-disk layout and
// must not change.
//
// The canonical k-mer is the even-parity member of the pair, not the
// numerically smaller code: ACG (000111) maps to CGT (011110).
package kmer

import (
	"math/bits"
	"strings"
)

// MaxK is the largest supported k-mer size: a full k-mer needs 2k bits of a
// uint64 and k must be odd.
const MaxK = 31

const compMask = 0xAAAAAAAAAAAAAAAA

// NormalizeK returns the k actually used for a requested size: values above
// MaxK are clamped and even values are lowered to the previous odd value.
// Zero is returned unchanged and must be rejected by the caller.
func NormalizeK(k uint8) uint8 {
	if k > MaxK {
		return MaxK
	}
	if k > 0 && k&1 == 0 {
		return k - 1
	}
	return k
}

// Nuc2Bit returns the 2-bit code of a single base.
func Nuc2Bit(b byte) uint64 { return uint64(b>>1) & 0b11 }

// Encode returns the code of the bases in window; only the last 32 bases
// contribute.
func Encode(window []byte) uint64 {
	var code uint64
	for _, b := range window {
		code = code<<2 | Nuc2Bit(b)
	}
	return code
}

// RevComp returns the reverse complement of a k-mer code.
func RevComp(code uint64, k uint8) uint64 {
	x := code ^ compMask
	x = (x>>2)&0x3333333333333333 | (x&0x3333333333333333)<<2
	x = (x>>4)&0x0F0F0F0F0F0F0F0F | (x&0x0F0F0F0F0F0F0F0F)<<4
	x = bits.ReverseBytes64(x)
	return x >> (64 - 2*uint(k))
}

// ParityEven reports whether code has an even number of set bits.
func ParityEven(code uint64) bool { return bits.OnesCount64(code)&1 == 0 }

// Canonical returns the canonical member of the pair {code, RevComp(code)}.
func Canonical(code uint64, k uint8) uint64 {
	if ParityEven(code) {
		return code
	}
	return RevComp(code, k)
}

// Address returns the table address of a canonical code.
func Address(canonical uint64) uint64 { return canonical >> 1 }

// AddressOf canonicalizes code and returns its table address.
func AddressOf(code uint64, k uint8) uint64 { return Canonical(code, k) >> 1 }

// FromAddress rebuilds the canonical code stored at address.
func FromAddress(address uint64) uint64 {
	code := address << 1
	if !ParityEven(code) {
		code |= 1
	}
	return code
}

// Decode renders a k-mer code as text.
func Decode(code uint64, k uint8) string {
	var sb strings.Builder
	sb.Grow(int(k))
	for i := int(k) - 1; i >= 0; i-- {
		sb.WriteByte("ACTG"[(code>>(2*uint(i)))&0b11])
	}
	return sb.String()
}

// DecodeAddress renders the canonical k-mer stored at address.
func DecodeAddress(address uint64, k uint8) string { return Decode(FromAddress(address), k) }

// KmerSpaceSize is the number of distinct k-mer codes, 4^k.
func KmerSpaceSize(k uint8) uint64 { return 1 << (2 * uint(k)) }

// AddressSpaceSize is the number of canonical addresses, 2^(2k-1).
func AddressSpaceSize(k uint8) uint64 { return 1 << (2*uint(k) - 1) }
