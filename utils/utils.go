package utils

import (
	"math/bits"
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers — Key Scattering For Every Index Strategy
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Every index reduces Mix64(key) by mask or modulus, never the raw key.
// The finalizer is a bijection: distinct keys never share a mixed value.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// NextPow2 returns the smallest power of 2 greater than or equal to n (minimum 1).
//
//go:nosplit
//go:inline
func NextPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

// Log2 returns floor(log2(n)) for n > 0 and 0 otherwise.
//
//go:nosplit
//go:inline
func Log2(n uint64) int {
	if n == 0 {
		return 0
	}
	return bits.Len64(n) - 1
}

///////////////////////////////////////////////////////////////////////////////
// Fast Loaders & Hex Decoders
///////////////////////////////////////////////////////////////////////////////

// LoadBE64 performs a manual big-endian 64-bit read, avoiding dependency on binary.BigEndian.
//
//go:nosplit
//go:inline
func LoadBE64(b []byte) uint64 {
	_ = b[7] // bounds check hint
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 |
		uint64(b[3])<<32 | uint64(b[4])<<24 | uint64(b[5])<<16 |
		uint64(b[6])<<8 | uint64(b[7])
}

// ParseHexU64 parses a 64-bit uint from a (0x-optional) ASCII hex string.
// Stops at first non-nibble and reports how many nibbles were consumed.
//
//go:nosplit
//go:inline
func ParseHexU64(b []byte) (uint64, int) {
	j := 0
	if len(b) >= 2 && b[0] == '0' && (b[1]|0x20) == 'x' {
		j = 2
	}
	start := j
	var u uint64
	for ; j < len(b) && j < start+16; j++ {
		c := b[j] | 0x20
		if c < '0' || c > 'f' || (c > '9' && c < 'a') {
			break
		}
		v := uint64(c - '0')
		if c > '9' {
			v -= 39 // a/A -> 10
		}
		u = (u << 4) | v
	}
	return u, j - start
}

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Cold-Path Formatting
///////////////////////////////////////////////////////////////////////////////

// Itoa converts a signed int to its decimal representation.
//
//go:nosplit
//go:inline
func Itoa(n int) string {
	if n < 0 {
		return "-" + Utoa(uint64(-n))
	}
	return Utoa(uint64(n))
}

// Utoa converts a uint64 to its decimal representation with a single allocation.
//
//go:nosplit
//go:inline
func Utoa(n uint64) string {
	var buf [20]byte
	i := len(buf)
	for n >= 10 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	i--
	buf[i] = byte('0' + n)
	return string(buf[i:])
}

// PrintWarning writes msg straight to stderr (fd 2) without allocating.
// Used before the structured logger is configured and as its last-resort fallback.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	_, _ = syscall.Write(2, unsafe.Slice(unsafe.StringData(msg), len(msg)))
}
