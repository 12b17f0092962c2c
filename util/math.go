package util

import (
	"encoding/binary"
	"math"
)

// AddUint64 calculates the sum of the given values and returns ok=false if
// the result overflows uint64.
func AddUint64(a, b uint64) (sum uint64, ok bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// SubUint64 calculates a-b and returns ok=false if b > a.
func SubUint64(a, b uint64) (diff uint64, ok bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// MulUint64 calculates a*b and returns ok=false if the result overflows
// uint64.
func MulUint64(a, b uint64) (product uint64, ok bool) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, false
	}
	return a * b, true
}

func Uint64ToBytes(i uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, i)
	return b
}

func Uint32ToBytes(i uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, i)
	return b
}

func Uint16ToBytes(i uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, i)
	return b
}
