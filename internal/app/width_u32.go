// internal/app/width_u32.go

//go:build count_u32 && !count_u64
// +build count_u32,!count_u64

package app

type Count = uint32
