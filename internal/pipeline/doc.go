// internal/pipeline/doc.go

// Package pipeline fans batches of sequence records out to a fixed pool of
// workers and stops at the first error or on context cancellation.
//
// Batches are the unit of work: a worker never sees part of a record, so
// k-mer windows never straddle two workers.
package pipeline
