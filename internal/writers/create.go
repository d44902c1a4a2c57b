// internal/writers/create.go
package writers

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/compress"
)

const bufferSize = 1 << 20

// Output is a buffered, optionally compressed destination.
type Output struct {
	io.Writer
	Path string

	buf    *bufio.Writer
	comp   io.WriteCloser
	closer io.Closer
}

// Create opens path for writing, truncating it. "-" writes to stdout, which
// is flushed but left open by Close.
func Create(path string, stdout io.Writer) (*Output, error) {
	return CreateCompressed(path, stdout, compress.None)
}

// CreateCompressed is Create with every byte going through a compressor.
func CreateCompressed(path string, stdout io.Writer, a compress.Algorithm) (*Output, error) {
	o := &Output{Path: path}
	dst := stdout
	if path != "-" {
		fh, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s", path)
		}
		dst, o.closer = fh, fh
	}
	o.buf = bufio.NewWriterSize(dst, bufferSize)
	o.Writer = o.buf
	if a != compress.None {
		cw, err := compress.NewWriter(o.buf, a)
		if err != nil {
			if o.closer != nil {
				_ = o.closer.Close()
			}
			return nil, errors.Wrapf(err, "creating %s", path)
		}
		o.comp, o.Writer = cw, cw
	}
	return o, nil
}

// Close flushes the compressor and the buffer, then closes the file.
func (o *Output) Close() error {
	var err error
	if o.comp != nil {
		err = o.comp.Close()
	}
	if ferr := o.buf.Flush(); err == nil {
		err = ferr
	}
	if o.closer != nil {
		if cerr := o.closer.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrapf(err, "writing %s", o.Path)
}
