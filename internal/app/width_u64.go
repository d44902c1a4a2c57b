// internal/app/width_u64.go

//go:build count_u64
// +build count_u64

package app

type Count = uint64
