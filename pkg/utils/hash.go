package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateStringSHA256 computes the SHA-256 hash of a string.
func CalculateStringSHA256(content string) string {
	hash := sha256.New()
	hash.Write([]byte(content))
	return hex.EncodeToString(hash.Sum(nil))
}

// CalculateFingerprint hashes an ordered list of parts into one digest.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func CalculateFingerprint(parts ...string) string {
	hash := sha256.New()
	var lenBuf [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := range lenBuf {
			lenBuf[i] = byte(n >> (8 * i))
		}
		hash.Write(lenBuf[:])
		hash.Write([]byte(p))
	}
	return hex.EncodeToString(hash.Sum(nil))
}
