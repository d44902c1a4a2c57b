// internal/spectrum/plot.go
package spectrum

import (
	"fmt"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"
)

// PlotOptions shapes the ASCII rendering of a spectrum.
type PlotOptions struct {
	Width  int // counts shown, starting at 1; <= 0 means 80
	Height int // rows; <= 0 means 20
	// Threshold, when non-zero, is named in the caption.
	Threshold uint64
}

// Plot draws log10(1+f(c)) for c in [1, Width] as an ASCII graph.
func (s *Spectrum) Plot(w io.Writer, opts PlotOptions) error {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 20
	}
	n := uint64(opts.Width)
	if m := s.Max(); m < n {
		n = m
	}
	if n == 0 {
		_, err := fmt.Fprintln(w, "empty spectrum")
		return err
	}
	values := make([]float64, n)
	for _, b := range s.bins {
		if b.Count > n {
			break
		}
		values[b.Count-1] = math.Log10(1 + float64(b.Freq))
	}
	caption := fmt.Sprintf("log10(1+frequency) for counts 1..%d", n)
	if opts.Threshold != 0 {
		caption += fmt.Sprintf(", threshold %d", opts.Threshold)
	}
	graph := asciigraph.Plot(values, asciigraph.Height(opts.Height), asciigraph.Caption(caption))
	_, err := fmt.Fprintln(w, graph)
	return err
}
