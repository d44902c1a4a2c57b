// internal/app/width_u16.go

//go:build count_u16 && !count_u32 && !count_u64
// +build count_u16,!count_u32,!count_u64

package app

type Count = uint16
