package cache

import (
	"strconv"

	"github.com/arloliu/vecopt/endian"
	"github.com/arloliu/vecopt/format"
	"github.com/arloliu/vecopt/internal/hash"
)

// keyVersion changes whenever the transformation behind cached results does,
// so entries written by an older pipeline are never served.
const keyVersion = 0x1

// Key identifies a cached result.
type Key uint64

// KeyFor returns the cache key for transforming samples with chunk width
// dimension under the given rounding mode.
func KeyFor(samples []float64, dimension int, rounding format.RoundingMode) Key {
	header := make([]byte, 2, 10)
	header[0] = keyVersion
	header[1] = byte(rounding)
	header = endian.GetLittleEndianEngine().AppendUint64(header, uint64(dimension)) //nolint:gosec

	return Key(hash.Samples(header, samples))
}

// String returns the key as 16 lower-case hex digits.
func (k Key) String() string {
	s := strconv.FormatUint(uint64(k), 16)
	if len(s) < 16 {
		s = "0000000000000000"[len(s):] + s
	}

	return s
}
