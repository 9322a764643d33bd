// Package hashindex implements the 16-bit hash-prefix bucketing scheme used
// to keep per-video lookups (uncut-segment info, branding-chunk queries) to
// O(bucket size) instead of a full table scan.
package hashindex

import (
	"crypto/sha256"
	"encoding/hex"
)

// NumBuckets is the number of distinct hash-prefix buckets (one per possible
// uint16 value).
const NumBuckets = 1 << 16

// ComputeHashPrefix returns the first 16 bits (big-endian) of SHA-256(s), the
// fallback bucket key for rows whose hashedVideoID column can't be parsed as
// hex (or is absent).
func ComputeHashPrefix(s string) uint16 {
	sum := sha256.Sum256([]byte(s))
	return uint16(sum[0])<<8 | uint16(sum[1])
}

// HashPrefixOf returns the bucket key for a video, preferring the first 4 hex
// characters of hashedVideoID (as supplied directly by the upstream mirror)
// and falling back to hashing videoID itself when that field is missing or
// malformed.
func HashPrefixOf(hashedVideoID, videoID string) uint16 {
	if len(hashedVideoID) >= 4 {
		if b, err := hex.DecodeString(hashedVideoID[:4]); err == nil && len(b) == 2 {
			return uint16(b[0])<<8 | uint16(b[1])
		}
	}
	return ComputeHashPrefix(videoID)
}

// Buckets is a fixed NumBuckets-length bucket array, parameterized over the
// stored element type. It exists to document the bucketing invariant in one
// place; callers index it directly with the precomputed prefix.
type Buckets[T any] [NumBuckets][]T

// NewBuckets returns a zero-valued bucket array.
func NewBuckets[T any]() *Buckets[T] {
	return &Buckets[T]{}
}
