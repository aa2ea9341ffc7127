package live

import (
	"fmt"
	"sync"

	"github.com/zeebo/xxh3"
)

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

// contentHash derives a deterministic digest of a serialized payload. Equal
// content always hashes equal; that is the whole duplicate-suppression
// contract.
func contentHash(data []byte) string {
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	_, _ = hasher.Write(data)
	sum := hasher.Sum128()
	hasherPool.Put(hasher)

	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}
