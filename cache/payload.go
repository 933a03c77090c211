package cache

import (
	"fmt"
	"math"

	"github.com/arloliu/vecopt/compress"
	"github.com/arloliu/vecopt/endian"
	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/format"
	"github.com/arloliu/vecopt/internal/pool"
)

const (
	payloadVersion    = 0x1
	payloadHeaderSize = 3
	countSize         = 4

	orderLittle = 0x1
	orderBig    = 0x2
)

// payloadCodec encodes result vectors into self-describing payloads.
type payloadCodec struct {
	compression format.CompressionType
	codec       compress.Codec
	engine      endian.EndianEngine
}

func newPayloadCodec(compression format.CompressionType, engine endian.EndianEngine) (*payloadCodec, error) {
	codec, err := compress.CreateCodec(compression, "cache payload")
	if err != nil {
		return nil, err
	}

	return &payloadCodec{compression: compression, codec: codec, engine: engine}, nil
}

func orderFlag(engine endian.EndianEngine) byte {
	if engine == endian.GetBigEndianEngine() {
		return orderBig
	}

	return orderLittle
}

// encode returns a freshly allocated payload for values.
func (p *payloadCodec) encode(values []float64) ([]byte, error) {
	if uint64(len(values)) > math.MaxUint32 {
		return nil, fmt.Errorf("cache payload: %d values exceed the u32 count", len(values))
	}

	bb := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(bb)

	bb.Grow(countSize + len(values)*8)
	bb.B = p.engine.AppendUint32(bb.B, uint32(len(values)))
	for _, v := range values {
		bb.B = p.engine.AppendUint64(bb.B, math.Float64bits(v))
	}

	body, err := p.codec.Compress(bb.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cache payload compress: %w", err)
	}

	// body may alias the pooled buffer, so always copy out.
	out := make([]byte, payloadHeaderSize, payloadHeaderSize+len(body))
	out[0] = payloadVersion
	out[1] = byte(p.compression)
	out[2] = orderFlag(p.engine)

	return append(out, body...), nil
}

// decode parses a payload written by any payloadCodec configuration.
func decodePayload(payload []byte) ([]float64, error) {
	if len(payload) < payloadHeaderSize {
		return nil, fmt.Errorf("%w: %d byte payload", errs.ErrCorruptCacheEntry, len(payload))
	}
	if payload[0] != payloadVersion {
		return nil, fmt.Errorf("%w: unknown version %d", errs.ErrCorruptCacheEntry, payload[0])
	}

	codec, err := compress.GetCodec(format.CompressionType(payload[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptCacheEntry, err)
	}

	var engine endian.EndianEngine
	switch payload[2] {
	case orderLittle:
		engine = endian.GetLittleEndianEngine()
	case orderBig:
		engine = endian.GetBigEndianEngine()
	default:
		return nil, fmt.Errorf("%w: unknown byte order %d", errs.ErrCorruptCacheEntry, payload[2])
	}

	body, err := codec.Decompress(payload[payloadHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptCacheEntry, err)
	}
	if len(body) < countSize {
		return nil, fmt.Errorf("%w: truncated body", errs.ErrCorruptCacheEntry)
	}

	count := int(engine.Uint32(body))
	body = body[countSize:]
	if len(body) != count*8 {
		return nil, fmt.Errorf("%w: %d values but %d bytes", errs.ErrCorruptCacheEntry, count, len(body))
	}

	values := make([]float64, count)
	for i := range values {
		values[i] = math.Float64frombits(engine.Uint64(body[i*8:]))
	}

	return values, nil
}
