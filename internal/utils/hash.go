package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// hasherPool is a package-level pool of reusable SHA-256 hash instances.
var hasherPool = sync.Pool{
	New: func() any {
		return sha256.New()
	},
}

// Fingerprint computes a SHA-256 digest over the given parts and returns it
// hex-encoded. Parts are separated by a zero byte so that ("ab","c") and
// ("a","bc") never collide.
//
// It is used to derive stable cache keys for arbitrary requests.
//
// Example usage:
//
//	key := utils.Fingerprint([]byte("GET"), []byte("/api/health"))
func Fingerprint(parts ...[]byte) string {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(part)
	}
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return hex.EncodeToString(sum)
}

// FingerprintString is the string form of [Fingerprint].
func FingerprintString(parts ...string) string {
	raw := make([][]byte, len(parts))
	for i, p := range parts {
		raw[i] = []byte(p)
	}
	return Fingerprint(raw...)
}
