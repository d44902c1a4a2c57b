// internal/count/table.go

// Package count implements the dense k-mer count table.
//
// A table for k holds one saturating counter of type T per canonical address,
// 2^(2k-1) counters in address order. Counting runs sequentially on plain
// cells, or on a worker pool with atomic cells when more than one worker is
// configured; both produce byte-identical tables.
package count

import (
	"context"
	"io"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/cmdutil"
	"github.com/natir/pcon/internal/fasta"
	"github.com/natir/pcon/internal/kmer"
	"github.com/natir/pcon/internal/pipeline"
	"golang.org/x/exp/constraints"
)

// Table is a dense array of counters indexed by canonical address.
type Table[T constraints.Unsigned] struct {
	k     uint8
	cells []T
	opts  options
}

// NewTable returns a zeroed table. k is normalized with kmer.NormalizeK;
// k == 0 panics.
func NewTable[T constraints.Unsigned](k uint8, opts ...Option) *Table[T] {
	if k == 0 {
		panic(errors.AssertionFailedf("count: k must be at least 1"))
	}
	t := &Table[T]{k: kmer.NormalizeK(k), opts: defaultOptions()}
	for _, o := range opts {
		o(&t.opts)
	}
	t.cells = allocCells[T](kmer.AddressSpaceSize(t.k))
	return t
}

// K returns the normalized k-mer size.
func (t *Table[T]) K() uint8 { return t.k }

// Len returns the number of counters, 2^(2k-1).
func (t *Table[T]) Len() uint64 { return uint64(len(t.cells)) }

// Width returns the size in bytes of one counter.
func (t *Table[T]) Width() int { return int(unsafe.Sizeof(T(0))) }

// Get returns the count of a k-mer code, in either orientation.
func (t *Table[T]) Get(code uint64) T { return t.cells[kmer.AddressOf(code, t.k)] }

// GetCanonic returns the count of a code known to be canonical.
func (t *Table[T]) GetCanonic(canonical uint64) T { return t.cells[kmer.Address(canonical)] }

// GetRaw returns the counter at address.
func (t *Table[T]) GetRaw(address uint64) T { return t.cells[address] }

// Raw exposes the counters in address order. Callers must not modify them.
func (t *Table[T]) Raw() []T { return t.cells }

// Bytes is the host-order byte view of the counters, used to load and store
// table bodies without copying.
func (t *Table[T]) Bytes() []byte { return cellBytes(t.cells) }

// Inc adds one to the counter of a k-mer code, saturating at the maximum
// of T.
func (t *Table[T]) Inc(code uint64) { incPlain(t.cells, kmer.AddressOf(code, t.k)) }

// IncCanonic is Inc for a code known to be canonical.
func (t *Table[T]) IncCanonic(canonical uint64) { incPlain(t.cells, kmer.Address(canonical)) }

// Set overwrites the counter at address.
func (t *Table[T]) Set(address uint64, v T) { t.cells[address] = v }

// NonZero returns the number of addresses with a count above zero.
func (t *Table[T]) NonZero() uint64 {
	var n uint64
	for _, c := range t.cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// CountFasta adds every k-mer of every record of src to the table. Windows
// restart at each record and records shorter than k contribute nothing. On
// error or cancellation the table holds a partial count.
func (t *Table[T]) CountFasta(ctx context.Context, src fasta.Source) error {
	log := t.opts.logger
	if t.opts.workers <= 1 {
		log.Debugf("counting %d-mers sequentially", t.k)
		return t.countSequential(ctx, src)
	}
	log.Debugf("counting %d-mers with %d workers, %d records per batch",
		t.k, t.opts.workers, t.opts.batchSize)
	cfg := pipeline.Config{Workers: t.opts.workers, BatchSize: t.opts.batchSize}
	return pipeline.ForEachBatch(ctx, cfg, src, func(batch []fasta.Record) error {
		w := kmer.NewWindow(t.k)
		for _, rec := range batch {
			t.observe(rec, t.addSeq(&w, rec.Seq, true))
		}
		return nil
	})
}

func (t *Table[T]) countSequential(ctx context.Context, src fasta.Source) error {
	w := kmer.NewWindow(t.k)
	done := ctx.Done()
	for {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t.observe(rec, t.addSeq(&w, rec.Seq, false))
	}
}

// addSeq counts the k-mers of one sequence and returns how many it saw.
func (t *Table[T]) addSeq(w *kmer.Window, seq []byte, concurrent bool) int {
	w.Reset()
	n := 0
	for _, b := range seq {
		code, ok := w.Push(b)
		if !ok {
			continue
		}
		if concurrent {
			incAtomic(t.cells, code>>1)
		} else {
			incPlain(t.cells, code>>1)
		}
		n++
	}
	return n
}

func (t *Table[T]) observe(rec fasta.Record, kmers int) {
	if t.opts.observer != nil {
		t.opts.observer.ObserveRecord(len(rec.Seq), kmers)
	}
}

// Observer is told about every counted record. It is called concurrently
// when the table counts with several workers.
type Observer interface {
	ObserveRecord(bases, kmers int)
}

type options struct {
	workers   int
	batchSize int
	observer  Observer
	logger    cmdutil.Logger
}

func defaultOptions() options {
	return options{
		workers:   1,
		batchSize: pipeline.DefaultBatchSize,
		logger:    cmdutil.Nop,
	}
}

// Option configures a Table.
type Option func(*options)

// WithWorkers sets the number of counting goroutines. One or fewer counts
// sequentially on plain cells.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithBatchSize sets the number of records handed to a worker at once.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithObserver registers a per-record hook.
func WithObserver(obs Observer) Option { return func(o *options) { o.observer = obs } }

// WithLogger routes debug output to l.
func WithLogger(l cmdutil.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
