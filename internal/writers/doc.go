// internal/writers/doc.go

// Package writers opens the files pcon writes to.
//
// Every output goes through Create: "-" means stdout, binary outputs can be
// wrapped in a compressor, and closing flushes everything in order.
package writers
