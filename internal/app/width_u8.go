// internal/app/width_u8.go

//go:build !count_u16 && !count_u32 && !count_u64
// +build !count_u16,!count_u32,!count_u64

package app

// Count is the counter type of the tables this binary builds and reads.
type Count = uint8
