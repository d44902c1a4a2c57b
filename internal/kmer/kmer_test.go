// internal/kmer/kmer_test.go
package kmer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeK(t *testing.T) {
	for _, c := range []struct{ in, want uint8 }{
		{1, 1}, {2, 1}, {5, 5}, {6, 5}, {31, 31}, {32, 31}, {33, 31}, {200, 31},
	} {
		require.Equal(t, c.want, NormalizeK(c.in), "k=%d", c.in)
	}
}

func TestEncodeDecode(t *testing.T) {
	require.EqualValues(t, 0b1000111101, Encode([]byte("TAGGC")))
	require.EqualValues(t, 0b1101011000, Encode([]byte("GCCTA")))
	require.Equal(t, "TAGGC", Decode(0b1000111101, 5))
	require.Equal(t, "GCCTA", Decode(0b1101011000, 5))

	// lowercase encodes like uppercase, N degrades to G
	require.Equal(t, Encode([]byte("ACGT")), Encode([]byte("acgt")))
	require.Equal(t, Encode([]byte("AGA")), Encode([]byte("ANA")))
}

func TestRevComp(t *testing.T) {
	require.EqualValues(t, 0b1000111101, RevComp(0b1101011000, 5))
	require.EqualValues(t, 0b1101011000, RevComp(0b1000111101, 5))
	require.Equal(t, "CGT", Decode(RevComp(Encode([]byte("ACG")), 3), 3))
	require.Equal(t, "T", Decode(RevComp(Encode([]byte("A")), 1), 1))
}

func TestCanonical(t *testing.T) {
	require.EqualValues(t, 0b1000111101, Canonical(0b1000111101, 5))
	require.EqualValues(t, 0b1000111101, Canonical(0b1101011000, 5))
	require.EqualValues(t, 0b100011110, AddressOf(Encode([]byte("TAGGC")), 5))
	require.EqualValues(t, 0b100011110, AddressOf(Encode([]byte("GCCTA")), 5))
	require.Equal(t, "TAGGC", DecodeAddress(0b100011110, 5))

	// parity, not the numeric minimum, picks the member
	acg, cgt := Encode([]byte("ACG")), Encode([]byte("CGT"))
	require.Less(t, acg, cgt)
	require.Equal(t, cgt, Canonical(acg, 3))
	require.Equal(t, cgt, Canonical(cgt, 3))
}

func TestAddressBijection(t *testing.T) {
	for _, k := range []uint8{1, 3, 5, 7} {
		seen := make([]bool, AddressSpaceSize(k))
		for code := uint64(0); code < KmerSpaceSize(k); code++ {
			can := Canonical(code, k)
			require.True(t, ParityEven(can))
			require.Equal(t, can, Canonical(RevComp(code, k), k))
			addr := Address(can)
			require.Less(t, addr, AddressSpaceSize(k))
			require.Equal(t, can, FromAddress(addr))
			seen[addr] = true
		}
		for addr, ok := range seen {
			require.True(t, ok, "k=%d address %d never produced", k, addr)
		}
	}
}

func TestWindowMatchesEncode(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []byte("ACGTacgtN")
	seq := make([]byte, 500)
	for i := range seq {
		seq[i] = alphabet[rng.Intn(len(alphabet))]
	}
	for _, k := range []uint8{1, 3, 13, 31} {
		w := NewWindow(k)
		for i, b := range seq {
			got, ok := w.Push(b)
			if i+1 < int(k) {
				require.False(t, ok)
				continue
			}
			require.True(t, ok)
			want := Canonical(Encode(seq[i+1-int(k):i+1]), k)
			require.Equal(t, want, got, "k=%d pos=%d", k, i)
		}
	}
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(3)
	w.Push('A')
	w.Push('C')
	w.Reset()
	_, ok := w.Push('G')
	require.False(t, ok)
	w.Push('T')
	got, ok := w.Push('A')
	require.True(t, ok)
	require.Equal(t, Canonical(Encode([]byte("GTA")), 3), got)
}
