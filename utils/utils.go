package utils

import (
	"github.com/twmb/murmur3"
)

// HashBytes is a 64 bit murmur3 hash over the concatenation of the parts.
func HashBytes(parts ...[]byte) uint64 {
	hash := murmur3.New64()
	for _, b := range parts {
		// hash.Hash never returns an error on Write
		_, _ = hash.Write(b)
	}
	return hash.Sum64()
}
