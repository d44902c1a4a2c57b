// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// Record is one sequence. Seq is owned by the record: a Reader never
// reuses it, so batches of records can be handed to other goroutines.
type Record struct {
	ID  string
	Seq []byte
}

// Source yields records until it returns io.EOF.
type Source interface {
	Next() (Record, error)
}

// Format is the flavour of a sequence stream, detected from its first
// non-empty line.
type Format int

const (
	FormatUnknown Format = iota
	FormatFASTA
	FormatFASTQ
)

func (f Format) String() string {
	switch f {
	case FormatFASTA:
		return "fasta"
	case FormatFASTQ:
		return "fastq"
	default:
		return "unknown"
	}
}

// ErrMalformed marks every parse error returned by a Reader.
var ErrMalformed = errors.New("malformed sequence file")

// Reader parses FASTA or FASTQ records from an uncompressed stream.
type Reader struct {
	br      *bufio.Reader
	format  Format
	line    int
	scratch []byte

	pendingID   string
	havePending bool
}

var _ Source = (*Reader)(nil)

// NewReader returns a Reader over r. The format is detected lazily.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 1<<16)}
}

// Format returns the detected format; FormatUnknown before the first Next.
func (r *Reader) Format() Format { return r.format }

// Next returns the next record, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Record, error) {
	if r.format == FormatUnknown {
		line, err := r.nextNonEmpty()
		if err != nil {
			return Record{}, err
		}
		switch line[0] {
		case '>':
			r.format = FormatFASTA
		case '@':
			r.format = FormatFASTQ
		default:
			return Record{}, r.malformed("expected '>' or '@' header")
		}
		r.setPending(line)
	}
	if r.format == FormatFASTQ {
		return r.nextFastq()
	}
	return r.nextFasta()
}

func (r *Reader) nextFasta() (Record, error) {
	if !r.havePending {
		line, err := r.nextNonEmpty()
		if err != nil {
			return Record{}, err
		}
		if line[0] != '>' {
			return Record{}, r.malformed("expected '>' header")
		}
		r.setPending(line)
	}
	rec := Record{ID: r.pendingID}
	r.havePending = false
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return rec, nil
		}
		if err != nil {
			return Record{}, err
		}
		if len(line) > 0 && line[0] == '>' {
			r.setPending(line)
			return rec, nil
		}
		rec.Seq = append(rec.Seq, line...)
	}
}

func (r *Reader) nextFastq() (Record, error) {
	if !r.havePending {
		line, err := r.nextNonEmpty()
		if err != nil {
			return Record{}, err
		}
		if line[0] != '@' {
			return Record{}, r.malformed("expected '@' header")
		}
		r.setPending(line)
	}
	rec := Record{ID: r.pendingID}
	r.havePending = false
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return Record{}, r.malformed("missing '+' separator")
		}
		if err != nil {
			return Record{}, err
		}
		if len(line) > 0 && line[0] == '+' {
			break
		}
		rec.Seq = append(rec.Seq, line...)
	}
	// quality lines may start with '@' or '+', so they are consumed by length
	qual := 0
	for qual < len(rec.Seq) {
		line, err := r.readLine()
		if err == io.EOF {
			return Record{}, r.malformed("truncated quality")
		}
		if err != nil {
			return Record{}, err
		}
		qual += len(line)
	}
	if qual != len(rec.Seq) {
		return Record{}, r.malformed("quality length differs from sequence length")
	}
	return rec, nil
}

func (r *Reader) setPending(header []byte) {
	r.pendingID = parseID(header[1:])
	r.havePending = true
}

func (r *Reader) nextNonEmpty() ([]byte, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if len(line) > 0 {
			return line, nil
		}
	}
}

// readLine returns the next line without its terminator. The slice is only
// valid until the following call.
func (r *Reader) readLine() ([]byte, error) {
	r.scratch = r.scratch[:0]
	for {
		chunk, err := r.br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			r.scratch = append(r.scratch, chunk...)
			continue
		}
		if len(r.scratch) > 0 {
			r.scratch = append(r.scratch, chunk...)
			chunk = r.scratch
		}
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "reading sequence")
		}
		if err == io.EOF && len(chunk) == 0 {
			return nil, io.EOF
		}
		r.line++
		chunk = bytes.TrimSuffix(chunk, []byte{'\n'})
		chunk = bytes.TrimSuffix(chunk, []byte{'\r'})
		return chunk, nil
	}
}

func (r *Reader) malformed(msg string) error {
	return errors.Wrapf(ErrMalformed, "line %d: %s", r.line, msg)
}

func parseID(b []byte) string {
	f := bytes.Fields(b)
	if len(f) == 0 {
		return ""
	}
	return string(f[0])
}
