// internal/kmer/window.go
package kmer

import "math/bits"

// Window is a rolling k-mer over a stream of bases. It keeps both the
// forward code and its reverse complement so each Push is O(1).
type Window struct {
	k     uint8
	n     uint8
	mask  uint64
	shift uint
	fwd   uint64
	rev   uint64
}

// NewWindow returns an empty window for k-mers of size k (1 <= k <= MaxK).
func NewWindow(k uint8) Window {
	return Window{
		k:     k,
		mask:  KmerSpaceSize(k) - 1,
		shift: 2 * uint(k-1),
	}
}

// K returns the k-mer size.
func (w *Window) K() uint8 { return w.k }

// Reset forgets every base pushed so far, e.g. at a record boundary.
func (w *Window) Reset() {
	w.n, w.fwd, w.rev = 0, 0, 0
}

// Push appends one base. Once k bases have been seen it returns the
// canonical code of the last k bases and true.
func (w *Window) Push(b byte) (uint64, bool) {
	v := Nuc2Bit(b)
	w.fwd = (w.fwd<<2 | v) & w.mask
	w.rev = w.rev>>2 | (v^0b10)<<w.shift
	if w.n < w.k {
		w.n++
		if w.n < w.k {
			return 0, false
		}
	}
	if bits.OnesCount64(w.fwd)&1 == 0 {
		return w.fwd, true
	}
	return w.rev, true
}
