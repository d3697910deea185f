// Package cache stores perception-model responses so that repeat runs over
// an unmodified document are deterministic and do not re-spend API calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface for perception responses.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the full request content: model name, task,
// prompt, and every image. Any byte of difference yields a different key.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0}) // separator so ("ab","c") != ("a","bc")
	}
	return "kyb-v1-" + hex.EncodeToString(h.Sum(nil))
}
