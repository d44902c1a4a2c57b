// internal/spectrum/spectrum.go

// Package spectrum builds the count histogram of a table ("k-mer spectrum")
// and estimates a solidity threshold from it.
package spectrum

import (
	"bufio"
	"io"
	"sort"
	"strconv"

	"github.com/cockroachdb/swiss"
	"github.com/natir/pcon/internal/count"
	"golang.org/x/exp/constraints"
)

// denseLimit bounds the counts accumulated in a flat array; larger counts,
// which only wide tables can hold, go through a hash map.
const denseLimit = 1 << 16

// Bin is one histogram entry: Freq addresses have exactly Count k-mers.
type Bin struct {
	Count uint64
	Freq  uint64
}

// Spectrum is an immutable histogram of non-zero counts, ascending by count.
type Spectrum struct {
	bins     []Bin
	total    uint64
	distinct uint64
}

// New computes the spectrum of t. Zero counts are not part of it.
func New[T constraints.Unsigned](t *count.Table[T]) *Spectrum {
	var (
		dense  []uint64
		sparse swiss.Map[uint64, uint64]
	)
	limit := uint64(^T(0))
	if limit >= denseLimit {
		limit = denseLimit - 1
		sparse.Init(0)
		defer sparse.Close()
	}
	dense = make([]uint64, limit+1)
	for _, c := range t.Raw() {
		v := uint64(c)
		if v <= limit {
			dense[v]++
			continue
		}
		f, _ := sparse.Get(v)
		sparse.Put(v, f+1)
	}

	bins := make([]Bin, 0, 64)
	for c := uint64(1); c <= limit; c++ {
		if dense[c] != 0 {
			bins = append(bins, Bin{Count: c, Freq: dense[c]})
		}
	}
	if sparse.Len() > 0 {
		tail := make([]Bin, 0, sparse.Len())
		sparse.All(func(c, f uint64) bool {
			tail = append(tail, Bin{Count: c, Freq: f})
			return true
		})
		sort.Slice(tail, func(i, j int) bool { return tail[i].Count < tail[j].Count })
		bins = append(bins, tail...)
	}
	return newSorted(bins)
}

// FromBins builds a spectrum from an explicit histogram. Bins may come in
// any order; duplicated counts are summed and empty bins dropped.
func FromBins(in []Bin) *Spectrum {
	bins := make([]Bin, 0, len(in))
	for _, b := range in {
		if b.Count != 0 && b.Freq != 0 {
			bins = append(bins, b)
		}
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Count < bins[j].Count })
	out := bins[:0]
	for _, b := range bins {
		if n := len(out); n > 0 && out[n-1].Count == b.Count {
			out[n-1].Freq += b.Freq
			continue
		}
		out = append(out, b)
	}
	return newSorted(out)
}

func newSorted(bins []Bin) *Spectrum {
	s := &Spectrum{bins: bins}
	for _, b := range bins {
		s.total += b.Count * b.Freq
		s.distinct += b.Freq
	}
	return s
}

// Bins returns the histogram ascending by count. Callers must not modify it.
func (s *Spectrum) Bins() []Bin { return s.bins }

// Freq returns the number of addresses with count c.
func (s *Spectrum) Freq(c uint64) uint64 {
	i := sort.Search(len(s.bins), func(i int) bool { return s.bins[i].Count >= c })
	if i < len(s.bins) && s.bins[i].Count == c {
		return s.bins[i].Freq
	}
	return 0
}

// Total is the k-mer mass, the sum of count*freq.
func (s *Spectrum) Total() uint64 { return s.total }

// Distinct is the number of addresses with a non-zero count.
func (s *Spectrum) Distinct() uint64 { return s.distinct }

// Max is the largest count, 0 for an empty spectrum.
func (s *Spectrum) Max() uint64 {
	if len(s.bins) == 0 {
		return 0
	}
	return s.bins[len(s.bins)-1].Count
}

// Empty reports whether no address has a non-zero count.
func (s *Spectrum) Empty() bool { return len(s.bins) == 0 }

// WriteCSV writes one "count,frequency" line per bin, ascending.
func (s *Spectrum) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var line []byte
	for _, b := range s.bins {
		line = strconv.AppendUint(line[:0], b.Count, 10)
		line = append(line, ',')
		line = strconv.AppendUint(line, b.Freq, 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
