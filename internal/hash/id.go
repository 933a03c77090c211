package hash

import (
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/vecopt/endian"
)

// batchValues is how many float64 values are staged before each digest write.
const batchValues = 64

// Samples computes the xxHash64 of header followed by the little-endian
// IEEE 754 bit patterns of samples. Values that compare equal but differ in
// bits (0 and -0, distinct NaN payloads) hash differently.
func Samples(header []byte, samples []float64) uint64 {
	engine := endian.GetLittleEndianEngine()
	d := xxhash.New()
	_, _ = d.Write(header)

	var buf [8 * batchValues]byte
	for len(samples) > 0 {
		n := min(len(samples), batchValues)
		for i, v := range samples[:n] {
			engine.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		_, _ = d.Write(buf[:n*8])
		samples = samples[n:]
	}

	return d.Sum64()
}
