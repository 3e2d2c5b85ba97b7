// Package memzero clears key material held in byte slices.
package memzero

import "runtime"

// Bytes overwrites every buffer with zeros.
//
//go:noinline
func Bytes(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
	runtime.KeepAlive(bufs)
}
