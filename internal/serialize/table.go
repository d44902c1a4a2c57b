// internal/serialize/table.go

// Package serialize reads and writes count tables and solid sets.
//
// A table is a 2-byte header [k, counter width in bytes] followed by the
// 2^(2k-1) counters in address order, little-endian, without padding. A
// solid set is a 1-byte header [k] followed by the packed bits. Compression,
// when any, wraps the whole stream and is not part of the format.
package serialize

import (
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/count"
	"github.com/natir/pcon/internal/kmer"
	"golang.org/x/exp/constraints"
)

var (
	// ErrWidthMismatch is returned when a table was written with a counter
	// width other than the one requested.
	ErrWidthMismatch = errors.New("pcon: counter width mismatch")
	// ErrCorrupt is returned for headers no writer produces.
	ErrCorrupt = errors.New("pcon: corrupt header")
)

// chunkSize bounds the buffers used to move table bodies.
const chunkSize = 2 << 20

var bigEndian = binary.NativeEndian.Uint16([]byte{0, 1}) == 1

// Header is the fixed prefix of a table file.
type Header struct {
	K     uint8
	Width uint8
}

// Cells returns the number of counters that follow the header.
func (h Header) Cells() uint64 { return kmer.AddressSpaceSize(h.K) }

// BodyLen returns the size of the body in bytes.
func (h Header) BodyLen() uint64 { return h.Cells() * uint64(h.Width) }

func validK(k uint8) bool { return k != 0 && k <= kmer.MaxK && k&1 == 1 }

// ReadHeader reads and validates a table header.
func ReadHeader(r io.Reader) (Header, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Header{}, errors.Wrap(unexpected(err), "pcon: reading count header")
	}
	h := Header{K: b[0], Width: b[1]}
	if !validK(h.K) {
		return Header{}, errors.Wrapf(ErrCorrupt, "k=%d", h.K)
	}
	switch h.Width {
	case 1, 2, 4, 8:
	default:
		return Header{}, errors.Wrapf(ErrCorrupt, "counter width %d", h.Width)
	}
	return h, nil
}

// WriteTable writes t in the binary table format.
func WriteTable[T constraints.Unsigned](w io.Writer, t *count.Table[T]) error {
	if _, err := w.Write([]byte{t.K(), uint8(t.Width())}); err != nil {
		return errors.Wrap(err, "pcon: writing count header")
	}
	return errors.Wrap(writeBody(w, t), "pcon: writing count body")
}

func writeBody[T constraints.Unsigned](w io.Writer, t *count.Table[T]) error {
	if !bigEndian {
		body := t.Bytes()
		for len(body) > 0 {
			n := min(len(body), chunkSize)
			if _, err := w.Write(body[:n]); err != nil {
				return err
			}
			body = body[n:]
		}
		return nil
	}
	buf := make([]byte, 0, chunkSize)
	for _, c := range t.Raw() {
		buf = appendLE(buf, c)
		if len(buf) >= chunkSize-8 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	_, err := w.Write(buf)
	return err
}

// ReadTable reads a table written with counters of type T. A file with a
// different counter width fails with ErrWidthMismatch before any allocation.
func ReadTable[T constraints.Unsigned](r io.Reader) (*count.Table[T], error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return ReadBody[T](r, h)
}

// ReadBody reads the body announced by h, for callers that inspected the
// header first.
func ReadBody[T constraints.Unsigned](r io.Reader, h Header) (*count.Table[T], error) {
	if want := uint8(unsafe.Sizeof(T(0))); h.Width != want {
		return nil, errors.Wrapf(ErrWidthMismatch, "file has %d-byte counters, want %d", h.Width, want)
	}
	t := count.NewTable[T](h.K)
	body := t.Bytes()
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(unexpected(err), "pcon: reading count body")
	}
	if bigEndian {
		swapLE(t.Raw())
	}
	return t, nil
}

// unexpected turns a clean EOF inside a fixed-size read into
// io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func appendLE[T constraints.Unsigned](b []byte, v T) []byte {
	switch unsafe.Sizeof(v) {
	case 1:
		return append(b, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(b, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(b, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(b, uint64(v))
	}
}

// swapLE converts counters loaded byte-for-byte from a little-endian body to
// host order.
func swapLE[T constraints.Unsigned](cells []T) {
	size := unsafe.Sizeof(T(0))
	if size == 1 {
		return
	}
	for i, c := range cells {
		b := unsafe.Slice((*byte)(unsafe.Pointer(&c)), size)
		switch size {
		case 2:
			cells[i] = T(binary.LittleEndian.Uint16(b))
		case 4:
			cells[i] = T(binary.LittleEndian.Uint32(b))
		default:
			cells[i] = T(binary.LittleEndian.Uint64(b))
		}
	}
}
