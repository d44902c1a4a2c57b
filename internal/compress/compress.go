// internal/compress/compress.go

// Package compress wraps byte streams in one of the supported compression
// formats and detects them again on read. It is format agnostic: count
// tables, solid sets and sequence files all go through it.
package compress

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Algorithm identifies a compression format.
type Algorithm int

const (
	None Algorithm = iota
	Gzip
	Zstd
	Snappy
	MinLZ
)

var names = [...]string{
	None:   "none",
	Gzip:   "gzip",
	Zstd:   "zstd",
	Snappy: "snappy",
	MinLZ:  "minlz",
}

func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(names) {
		return "unknown"
	}
	return names[a]
}

// Algorithms lists every supported algorithm, in flag help order.
func Algorithms() []Algorithm { return []Algorithm{Gzip, Zstd, Snappy, MinLZ, None} }

// ParseAlgorithm maps a flag value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for i, n := range names {
		if strings.EqualFold(s, n) {
			return Algorithm(i), nil
		}
	}
	return None, errors.Newf("unknown compression %q", s)
}

var (
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// NewWriter returns a writer compressing into w. Close must be called to
// flush the trailer; it does not close w.
func NewWriter(w io.Writer, a Algorithm) (io.WriteCloser, error) {
	switch a {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case MinLZ:
		return newMinlzWriter(w)
	default:
		return nil, errors.AssertionFailedf("unexpected compression algorithm %d", errors.Safe(a))
	}
}

// Detect reports the algorithm whose magic bytes prefix head.
func Detect(head []byte) Algorithm {
	switch {
	case bytes.HasPrefix(head, snappyMagic):
		return Snappy
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, minlzMagic):
		return MinLZ
	default:
		return None
	}
}

// NewReader sniffs the first bytes of r and returns a reader yielding the
// decompressed stream, together with the detected algorithm. Streams with no
// known magic are passed through unchanged. Close releases decoder state but
// does not close r.
func NewReader(r io.Reader) (io.ReadCloser, Algorithm, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	head, err := br.Peek(len(snappyMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, None, errors.Wrap(err, "sniffing compression")
	}
	a := Detect(head)
	switch a {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, a, errors.Wrap(err, "opening gzip stream")
		}
		return zr, a, nil
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, a, errors.Wrap(err, "opening zstd stream")
		}
		return zr.IOReadCloser(), a, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(br)), a, nil
	case MinLZ:
		mr, err := newMinlzReader(br)
		if err != nil {
			return nil, a, err
		}
		return mr, a, nil
	default:
		return io.NopCloser(br), None, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
