// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"io"

	"github.com/natir/pcon/internal/fasta"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of records handed to a worker at once.
const DefaultBatchSize = 8192

// Config controls the batch pipeline.
type Config struct {
	Workers   int // number of worker goroutines (>=1)
	BatchSize int // records per batch; <=0 means DefaultBatchSize
}

// ForEachBatch reads src on one goroutine, groups its records into batches
// and calls visit for each batch from a fixed pool of Workers goroutines.
// visit must be safe for concurrent use. Batches are not delivered in order.
// It returns the first error from src or visit, or ctx.Err() if ctx was
// cancelled first.
func ForEachBatch(
	ctx context.Context,
	cfg Config,
	src fasta.Source,
	visit func([]fasta.Record) error,
) error {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan []fasta.Record, cfg.Workers*2)

	// Feed work
	g.Go(func() error {
		defer close(jobs)
		batch := make([]fasta.Record, 0, cfg.BatchSize)
		for {
			rec, err := src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			batch = append(batch, rec)
			if len(batch) < cfg.BatchSize {
				continue
			}
			select {
			case jobs <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
			batch = make([]fasta.Record, 0, cfg.BatchSize)
		}
		if len(batch) == 0 {
			return nil
		}
		select {
		case jobs <- batch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	// Workers
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case b, ok := <-jobs:
					if !ok {
						return nil
					}
					if err := visit(b); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}
