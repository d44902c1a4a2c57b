// internal/serialize/csv.go
package serialize

import (
	"bufio"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/count"
	"github.com/natir/pcon/internal/kmer"
	"github.com/natir/pcon/internal/solid"
	"golang.org/x/exp/constraints"
)

// WriteCSV writes one "kmer,count" line per address whose count is at least
// minAbundance, in address order, without a header row.
func WriteCSV[T constraints.Unsigned](w io.Writer, t *count.Table[T], minAbundance T) error {
	bw := bufio.NewWriterSize(w, 1<<16)
	k := t.K()
	var line []byte
	for a, c := range t.Raw() {
		if c < minAbundance {
			continue
		}
		line = append(line[:0], kmer.DecodeAddress(uint64(a), k)...)
		line = append(line, ',')
		line = strconv.AppendUint(line, uint64(c), 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return errors.Wrap(err, "pcon: writing csv")
		}
	}
	return errors.Wrap(bw.Flush(), "pcon: writing csv")
}

// WriteSolid writes the solid set of t at threshold.
func WriteSolid[T constraints.Unsigned](w io.Writer, t *count.Table[T], threshold T) error {
	return WriteSet(w, solid.FromTable(t, threshold))
}

// WriteSet writes s as [k] followed by its packed bits.
func WriteSet(w io.Writer, s *solid.Set) error {
	if _, err := w.Write([]byte{s.K()}); err != nil {
		return errors.Wrap(err, "pcon: writing solid header")
	}
	if _, err := w.Write(s.Raw()); err != nil {
		return errors.Wrap(err, "pcon: writing solid body")
	}
	return nil
}

// ReadSet reads a solid set written by WriteSet.
func ReadSet(r io.Reader) (*solid.Set, error) {
	var h [1]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, errors.Wrap(unexpected(err), "pcon: reading solid header")
	}
	if !validK(h[0]) {
		return nil, errors.Wrapf(ErrCorrupt, "k=%d", h[0])
	}
	raw := make([]byte, solid.ByteLen(h[0]))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrap(unexpected(err), "pcon: reading solid body")
	}
	return solid.FromRaw(h[0], raw)
}

// Fingerprint is the xxhash64 of the little-endian body of t, the bytes
// WriteTable puts after the header.
func Fingerprint[T constraints.Unsigned](t *count.Table[T]) uint64 {
	if !bigEndian {
		return xxhash.Sum64(t.Bytes())
	}
	d := xxhash.New()
	if err := writeBody(d, t); err != nil {
		panic(errors.AssertionFailedf("hashing cannot fail: %v", err))
	}
	return d.Sum64()
}
