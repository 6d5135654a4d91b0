// Package common provides shared utilities for the shielded wallet core,
// grounded on the teacher's pkg/common/utils.go (hex and checked-arithmetic
// helpers kept in the teacher's shape; the block/DAG-flavored helpers that
// package also carried are dropped as genuinely unused by this module's
// domain rather than kept unexercised).
package common

import (
	"crypto/rand"
	"encoding/hex"
)

// HexToBytes converts a hex string (optionally "0x"-prefixed) to bytes,
// used by cmd/walletd to parse an operator-supplied seed.
func HexToBytes(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

// BytesToHex converts bytes to a "0x"-prefixed hex string.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// RandomBytes generates n cryptographically random bytes, used by
// cmd/walletd to generate a fresh wallet seed when none is supplied.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// CheckedAbs returns the absolute value of n and true, or (0, false) if n is
// math.MinInt64 and cannot be negated without overflow, mirroring
// final_check's rejection of an unrepresentable |value_balance|.
func CheckedAbs(n int64) (int64, bool) {
	if n == -9223372036854775808 {
		return 0, false
	}
	if n < 0 {
		return -n, true
	}
	return n, true
}

// CheckedAddInt64 adds a and b, returning (0, false) on signed overflow,
// used by the builder to reject a value-balance accumulation that would
// overflow its signed 64-bit amount.
func CheckedAddInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
