package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngines(t *testing.T) {
	require.Equal(t, binary.LittleEndian, GetLittleEndianEngine())
	require.Equal(t, binary.BigEndian, GetBigEndianEngine())
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float64{0, -0.4390113, 1, math.Inf(-1), math.MaxFloat64}
	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		var buf []byte
		for _, v := range values {
			buf = engine.AppendUint64(buf, math.Float64bits(v))
		}
		require.Len(t, buf, len(values)*8)

		for i, v := range values {
			require.Equal(t, v, math.Float64frombits(engine.Uint64(buf[i*8:])))
		}
	}

	le := GetLittleEndianEngine().AppendUint64(nil, 1)
	be := GetBigEndianEngine().AppendUint64(nil, 1)
	require.Equal(t, byte(1), le[0])
	require.Equal(t, byte(1), be[7])
}
