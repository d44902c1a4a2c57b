// internal/count/table_test.go
package count

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/natir/pcon/internal/fasta"
	"github.com/natir/pcon/internal/kmer"
	"github.com/stretchr/testify/require"
)

func source(s string) fasta.Source { return fasta.NewReader(strings.NewReader(s)) }

func randomFasta(seed int64, records, length int) string {
	rng := rand.New(rand.NewSource(seed))
	var sb strings.Builder
	for i := 0; i < records; i++ {
		fmt.Fprintf(&sb, ">r%d\n", i)
		n := 1 + rng.Intn(length)
		for j := 0; j < n; j++ {
			sb.WriteByte("ACGTacgtN"[rng.Intn(9)])
			if j%60 == 59 {
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestNewTableK(t *testing.T) {
	for _, c := range []struct{ in, want uint8 }{{1, 1}, {3, 3}, {4, 3}, {12, 11}, {31, 31}, {32, 31}, {255, 31}} {
		require.Equal(t, c.want, kmer.NormalizeK(c.in))
	}
	for _, c := range []struct{ in, want uint8 }{{1, 1}, {4, 3}, {5, 5}, {10, 9}} {
		tb := NewTable[uint8](c.in)
		require.Equal(t, c.want, tb.K())
		require.Equal(t, kmer.AddressSpaceSize(c.want), tb.Len())
	}
	require.Panics(t, func() { NewTable[uint8](0) })
}

func TestWidth(t *testing.T) {
	require.Equal(t, 1, NewTable[uint8](3).Width())
	require.Equal(t, 2, NewTable[uint16](3).Width())
	require.Equal(t, 4, NewTable[uint32](3).Width())
	require.Equal(t, 8, NewTable[uint64](3).Width())
	require.Len(t, NewTable[uint16](3).Bytes(), 64)
}

func TestCountACGTACGT(t *testing.T) {
	tb := NewTable[uint8](3)
	require.NoError(t, tb.CountFasta(context.Background(), source(">s\nACGTACGT\n")))

	// ACG, CGT, GTA, TAC, ACG, CGT: ACG/CGT and GTA/TAC are reverse
	// complement pairs
	acg := kmer.Encode([]byte("ACG"))
	require.EqualValues(t, 4, tb.Get(acg))
	require.EqualValues(t, 4, tb.Get(kmer.Encode([]byte("CGT"))))
	require.EqualValues(t, 2, tb.Get(kmer.Encode([]byte("GTA"))))
	require.EqualValues(t, 2, tb.Get(kmer.Encode([]byte("TAC"))))
	require.EqualValues(t, 2, tb.NonZero())
}

func TestCountBothOrientations(t *testing.T) {
	tb := NewTable[uint16](5)
	in := randomFasta(7, 20, 300)
	require.NoError(t, tb.CountFasta(context.Background(), source(in)))

	r := fasta.NewReader(strings.NewReader(in))
	for {
		rec, err := r.Next()
		if err != nil {
			break
		}
		for i := 0; i+5 <= len(rec.Seq); i++ {
			code := kmer.Encode(rec.Seq[i : i+5])
			require.NotZero(t, tb.Get(code))
			require.Equal(t, tb.Get(code), tb.Get(kmer.RevComp(code, 5)))
			require.Equal(t, tb.Get(code), tb.GetCanonic(kmer.Canonical(code, 5)))
		}
	}
}

func TestRecordBoundaries(t *testing.T) {
	tb := NewTable[uint8](3)
	require.NoError(t, tb.CountFasta(context.Background(), source(">a\nAC\n>b\nGT\n>c\nA\n")))
	require.Zero(t, tb.NonZero())

	tb = NewTable[uint8](3)
	require.NoError(t, tb.CountFasta(context.Background(), source(">a\nAAA\n>b\nAAA\n")))
	require.EqualValues(t, 2, tb.Get(kmer.Encode([]byte("AAA"))))
	require.EqualValues(t, 1, tb.NonZero())
}

func TestCountTwiceSaturates(t *testing.T) {
	in := ">s\n" + strings.Repeat("A", 200) + "\n>t\nACGTTGCA\n"
	once := NewTable[uint8](3)
	require.NoError(t, once.CountFasta(context.Background(), source(in)))
	twice := NewTable[uint8](3)
	require.NoError(t, twice.CountFasta(context.Background(), source(in)))
	require.NoError(t, twice.CountFasta(context.Background(), source(in)))

	for a := uint64(0); a < once.Len(); a++ {
		want := 2 * uint64(once.GetRaw(a))
		if want > 255 {
			want = 255
		}
		require.EqualValues(t, want, twice.GetRaw(a), "address %d", a)
	}
	require.EqualValues(t, 198, once.Get(kmer.Encode([]byte("AAA"))))
	require.EqualValues(t, 255, twice.Get(kmer.Encode([]byte("AAA"))))
}

func TestWorkersIdentical(t *testing.T) {
	in := randomFasta(42, 300, 500)
	want := NewTable[uint8](7)
	require.NoError(t, want.CountFasta(context.Background(), source(in)))

	for workers := 1; workers <= 8; workers++ {
		got := NewTable[uint8](7, WithWorkers(workers), WithBatchSize(13))
		require.NoError(t, got.CountFasta(context.Background(), source(in)))
		require.Equal(t, want.Raw(), got.Raw(), "workers=%d", workers)
	}
}

func TestWorkersIdenticalWide(t *testing.T) {
	in := randomFasta(3, 100, 400)
	want16 := NewTable[uint16](5)
	want32 := NewTable[uint32](5)
	want64 := NewTable[uint64](5)
	require.NoError(t, want16.CountFasta(context.Background(), source(in)))
	require.NoError(t, want32.CountFasta(context.Background(), source(in)))
	require.NoError(t, want64.CountFasta(context.Background(), source(in)))

	got16 := NewTable[uint16](5, WithWorkers(4), WithBatchSize(3))
	got32 := NewTable[uint32](5, WithWorkers(4), WithBatchSize(3))
	got64 := NewTable[uint64](5, WithWorkers(4), WithBatchSize(3))
	require.NoError(t, got16.CountFasta(context.Background(), source(in)))
	require.NoError(t, got32.CountFasta(context.Background(), source(in)))
	require.NoError(t, got64.CountFasta(context.Background(), source(in)))
	require.Equal(t, want16.Raw(), got16.Raw())
	require.Equal(t, want32.Raw(), got32.Raw())
	require.Equal(t, want64.Raw(), got64.Raw())
}

func TestAtomicNeighbours(t *testing.T) {
	// adjacent sub-word counters share a 32-bit word
	cells8 := allocCells[uint8](16)
	cells16 := allocCells[uint16](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for a := uint64(0); a < 16; a++ {
					incAtomic(cells8, a)
					incAtomic(cells16, a)
				}
			}
		}()
	}
	wg.Wait()
	for a := 0; a < 16; a++ {
		require.EqualValues(t, 255, cells8[a], "address %d", a)
		require.EqualValues(t, 800, cells16[a], "address %d", a)
	}
}

func TestIncSaturates(t *testing.T) {
	tb := NewTable[uint8](1)
	a := kmer.Encode([]byte("A"))
	for i := 0; i < 300; i++ {
		tb.Inc(a)
	}
	require.EqualValues(t, 255, tb.Get(a))
	require.EqualValues(t, 255, tb.Get(kmer.Encode([]byte("T"))))
	require.Zero(t, tb.Get(kmer.Encode([]byte("C"))))

	tb.Set(kmer.AddressOf(a, 1), 3)
	tb.IncCanonic(kmer.Canonical(a, 1))
	require.EqualValues(t, 4, tb.Get(a))
}

type recordCounter struct {
	records, bases, kmers atomic.Int64
}

func (r *recordCounter) ObserveRecord(bases, kmers int) {
	r.records.Add(1)
	r.bases.Add(int64(bases))
	r.kmers.Add(int64(kmers))
}

func TestObserver(t *testing.T) {
	for _, workers := range []int{1, 4} {
		var obs recordCounter
		tb := NewTable[uint8](3, WithWorkers(workers), WithObserver(&obs))
		require.NoError(t, tb.CountFasta(context.Background(), source(">a\nACGTA\n>b\nAC\n>c\nAAAA\n")))
		require.EqualValues(t, 3, obs.records.Load())
		require.EqualValues(t, 11, obs.bases.Load())
		require.EqualValues(t, 5, obs.kmers.Load())
	}
}

func TestCountCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		tb := NewTable[uint8](3, WithWorkers(workers), WithBatchSize(1))
		err := tb.CountFasta(ctx, source(randomFasta(1, 2000, 50)))
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestCountMalformed(t *testing.T) {
	for _, workers := range []int{1, 2} {
		tb := NewTable[uint8](3, WithWorkers(workers))
		err := tb.CountFasta(context.Background(), source(">a\nACGT\n\x00\n"))
		require.NoError(t, err) // a stray line inside a FASTA record is sequence

		err = tb.CountFasta(context.Background(), source("@a\nACGT\n+\nI\n"))
		require.ErrorIs(t, err, fasta.ErrMalformed)
	}
}
