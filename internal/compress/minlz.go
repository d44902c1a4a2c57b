// internal/compress/minlz.go
package compress

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/minio/minlz"
)

// minlz streams are a magic followed by frames of uvarint(len) + one MinLZ
// block. Blocks hold at most minlzBlockSize decompressed bytes.
var minlzMagic = []byte("pcMZ")

const minlzBlockSize = 4 << 20

type minlzWriter struct {
	w   io.Writer
	buf []byte
	dst []byte
	hdr [binary.MaxVarintLen64]byte
}

func newMinlzWriter(w io.Writer) (*minlzWriter, error) {
	if _, err := w.Write(minlzMagic); err != nil {
		return nil, errors.Wrap(err, "writing minlz magic")
	}
	return &minlzWriter{w: w, buf: make([]byte, 0, minlzBlockSize)}, nil
}

func (m *minlzWriter) Write(p []byte) (int, error) {
	n := 0
	for len(p) > 0 {
		free := minlzBlockSize - len(m.buf)
		if free > len(p) {
			free = len(p)
		}
		m.buf = append(m.buf, p[:free]...)
		p = p[free:]
		n += free
		if len(m.buf) == minlzBlockSize {
			if err := m.flush(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (m *minlzWriter) flush() error {
	if len(m.buf) == 0 {
		return nil
	}
	var err error
	m.dst, err = minlz.Encode(m.dst[:0], m.buf, minlz.LevelFastest)
	if err != nil {
		return errors.Wrap(err, "minlz compression")
	}
	l := binary.PutUvarint(m.hdr[:], uint64(len(m.dst)))
	if _, err := m.w.Write(m.hdr[:l]); err != nil {
		return err
	}
	if _, err := m.w.Write(m.dst); err != nil {
		return err
	}
	m.buf = m.buf[:0]
	return nil
}

func (m *minlzWriter) Close() error { return m.flush() }

type minlzReader struct {
	r    *bufio.Reader
	src  []byte
	dst  []byte
	off  int
	done bool
}

func newMinlzReader(r *bufio.Reader) (*minlzReader, error) {
	if _, err := r.Discard(len(minlzMagic)); err != nil {
		return nil, errors.Wrap(err, "reading minlz magic")
	}
	return &minlzReader{r: r}, nil
}

func (m *minlzReader) Read(p []byte) (int, error) {
	for m.off == len(m.dst) {
		if m.done {
			return 0, io.EOF
		}
		if err := m.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, m.dst[m.off:])
	m.off += n
	return n, nil
}

func (m *minlzReader) next() error {
	l, err := binary.ReadUvarint(m.r)
	if err == io.EOF {
		m.done = true
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading minlz frame length")
	}
	if l > uint64(minlz.MaxBlockSize)*2 {
		return errors.Newf("minlz frame of %d bytes exceeds the block limit", l)
	}
	if cap(m.src) < int(l) {
		m.src = make([]byte, l)
	}
	m.src = m.src[:l]
	if _, err := io.ReadFull(m.r, m.src); err != nil {
		return errors.Wrap(err, "reading minlz frame")
	}
	n, err := minlz.DecodedLen(m.src)
	if err != nil {
		return errors.Wrap(err, "minlz frame header")
	}
	if cap(m.dst) < n {
		m.dst = make([]byte, n)
	}
	m.dst, err = minlz.Decode(m.dst[:n], m.src)
	if err != nil {
		return errors.Wrap(err, "minlz decompression")
	}
	m.off = 0
	return nil
}

func (m *minlzReader) Close() error { return nil }
