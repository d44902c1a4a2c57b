// internal/cmdutil/run.go
package cmdutil

import (
	"context"

	"github.com/natir/pcon/internal/fasta"
)

// ForEachInput opens each sequence path in turn, hands it to fn and closes
// it. It stops at the first error, or before the next input once ctx is done.
// It returns the number of inputs fully processed.
func ForEachInput(
	ctx context.Context,
	paths []string,
	log Logger,
	fn func(*fasta.File) error,
) (int, error) {
	done := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		f, err := fasta.Open(p)
		if err != nil {
			return done, err
		}
		log.Debugf("reading %s (compression: %s)", p, f.Compression)
		err = fn(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
