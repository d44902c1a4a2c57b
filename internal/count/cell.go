// internal/count/cell.go
package count

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// bigEndian is true on hosts storing the most significant byte first.
var bigEndian = binary.NativeEndian.Uint16([]byte{0, 1}) == 1

// allocCells returns n zeroed counters backed by a []uint64, so the first
// cell is 8-byte aligned and every enclosing 32-bit word is addressable.
func allocCells[T constraints.Unsigned](n uint64) []T {
	if n == 0 {
		return nil
	}
	size := uint64(unsafe.Sizeof(T(0)))
	words := make([]uint64, (n*size+7)/8)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(words))), n)
}

// cellBytes is the byte view of cells, in host byte order.
func cellBytes[T constraints.Unsigned](cells []T) []byte {
	if len(cells) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(T(0)))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(cells))), len(cells)*size)
}

func incPlain[T constraints.Unsigned](cells []T, addr uint64) {
	c := &cells[addr]
	if *c != ^T(0) {
		*c++
	}
}

// incAtomic is a saturating compare-and-swap increment. 8- and 16-bit
// counters CAS their enclosing aligned 32-bit word. Cells are only ever
// touched through sync/atomic here, including the bounds check, so parallel
// counting stays clean under -race.
func incAtomic[T constraints.Unsigned](cells []T, addr uint64) {
	if addr >= uint64(len(cells)) {
		panic(errors.AssertionFailedf("count: address %d out of range [0, %d)", addr, len(cells)))
	}
	base := unsafe.Pointer(unsafe.SliceData(cells))
	switch size := unsafe.Sizeof(T(0)); size {
	case 8:
		p := (*uint64)(unsafe.Add(base, addr*8))
		for {
			old := atomic.LoadUint64(p)
			if old == ^uint64(0) || atomic.CompareAndSwapUint64(p, old, old+1) {
				return
			}
		}
	case 4:
		p := (*uint32)(unsafe.Add(base, addr*4))
		for {
			old := atomic.LoadUint32(p)
			if old == ^uint32(0) || atomic.CompareAndSwapUint32(p, old, old+1) {
				return
			}
		}
	default:
		off := addr * uint64(size)
		p := (*uint32)(unsafe.Add(base, off&^3))
		o := uint(off & 3)
		var shift uint
		if bigEndian {
			shift = (4 - o - uint(size)) * 8
		} else {
			shift = o * 8
		}
		field := uint32(1)<<(uint(size)*8) - 1
		for {
			old := atomic.LoadUint32(p)
			if (old>>shift)&field == field || atomic.CompareAndSwapUint32(p, old, old+1<<shift) {
				return
			}
		}
	}
}
