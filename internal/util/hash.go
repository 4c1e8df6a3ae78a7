// Package util contains internal helpers (key hashing, shard segments).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns the lowercase hex SHA-256 digest of key.
// The digest is the key's on-disk identity: a file location is recomputed
// from the key alone on every access, so collision resistance is what spares
// the engine from maintaining any directory or index structure.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
