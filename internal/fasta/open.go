// internal/fasta/open.go
package fasta

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/compress"
)

// File is a Reader over an opened path. Close releases the decompressor and
// the file handle.
type File struct {
	*Reader
	Path        string
	Compression compress.Algorithm
	closers     []io.Closer
}

// Open opens path for reading; "-" reads stdin. Compressed input (gzip, zstd,
// snappy, minlz) is detected by its magic bytes, not by the file suffix.
func Open(path string) (*File, error) {
	var (
		src     io.Reader
		closers []io.Closer
	)
	if path == "-" {
		src = os.Stdin
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		src, closers = fh, []io.Closer{fh}
	}
	dr, algo, err := compress.NewReader(src)
	if err != nil {
		closeAll(closers)
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return &File{
		Reader:      NewReader(dr),
		Path:        path,
		Compression: algo,
		closers:     append([]io.Closer{dr}, closers...),
	}, nil
}

func (f *File) Close() error { return closeAll(f.closers) }

func closeAll(cs []io.Closer) error {
	var err error
	for _, c := range cs {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
