package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// HashFunc maps a key to the 32-bit hash the header and directory pages
// navigate by.
type HashFunc func(key int64) uint32

func hashBytes(h func([]byte) uint64, key int64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return uint32(h(buf[:]))
}

// XxHasher is the default hash function.
func XxHasher(key int64) uint32 {
	return hashBytes(xxhash.Sum64, key)
}

// MurmurHasher is an alternate hash function, offered for tests that want
// to double-hash a table's contents under an independent function and
// cross-check bucket placement against XxHasher.
func MurmurHasher(key int64) uint32 {
	return hashBytes(murmur3.Sum64, key)
}
