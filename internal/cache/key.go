package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// key derives the fixed-width bucket key for a path.
func key(path string) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, xxhash.Sum64String(path))
	return k
}
