// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/fasta"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	recs []fasta.Record
	err  error // returned once recs are drained; io.EOF when nil
}

func (s *sliceSource) Next() (fasta.Record, error) {
	if len(s.recs) == 0 {
		if s.err != nil {
			return fasta.Record{}, s.err
		}
		return fasta.Record{}, io.EOF
	}
	r := s.recs[0]
	s.recs = s.recs[1:]
	return r, nil
}

func records(n int) []fasta.Record {
	out := make([]fasta.Record, n)
	for i := range out {
		out[i] = fasta.Record{ID: fmt.Sprintf("r%d", i), Seq: []byte("ACGT")}
	}
	return out
}

func TestForEachBatchVisitsEveryRecord(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8} {
		for _, batch := range []int{0, 1, 7, 100} {
			var (
				mu      sync.Mutex
				seen    = map[string]int{}
				largest int
			)
			err := ForEachBatch(context.Background(), Config{Workers: workers, BatchSize: batch},
				&sliceSource{recs: records(250)}, func(b []fasta.Record) error {
					mu.Lock()
					defer mu.Unlock()
					if len(b) > largest {
						largest = len(b)
					}
					for _, r := range b {
						seen[r.ID]++
					}
					return nil
				})
			require.NoError(t, err)
			require.Len(t, seen, 250, "workers=%d batch=%d", workers, batch)
			for id, n := range seen {
				require.Equal(t, 1, n, id)
			}
			if batch > 0 {
				require.LessOrEqual(t, largest, batch)
			}
		}
	}
}

func TestForEachBatchEmpty(t *testing.T) {
	var calls atomic.Int32
	err := ForEachBatch(context.Background(), Config{Workers: 4}, &sliceSource{},
		func([]fasta.Record) error { calls.Add(1); return nil })
	require.NoError(t, err)
	require.Zero(t, calls.Load())
}

func TestForEachBatchSourceError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEachBatch(context.Background(), Config{Workers: 2, BatchSize: 4},
		&sliceSource{recs: records(10), err: boom}, func([]fasta.Record) error { return nil })
	require.ErrorIs(t, err, boom)
}

func TestForEachBatchVisitError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEachBatch(context.Background(), Config{Workers: 3, BatchSize: 1},
		&sliceSource{recs: records(1000)}, func([]fasta.Record) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestForEachBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ForEachBatch(ctx, Config{Workers: 2, BatchSize: 1},
		&sliceSource{recs: records(1000)}, func([]fasta.Record) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
