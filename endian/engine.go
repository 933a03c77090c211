// Package endian provides the byte order used for binary sample payloads.
//
// EndianEngine joins binary.ByteOrder and binary.AppendByteOrder so encoders
// can both put into fixed buffers and append to growing ones through one value:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint64(buf, math.Float64bits(v))
//
// Cache keys and cache payloads are always little-endian unless configured
// otherwise, so they are portable between hosts sharing a Redis tier.
//
// All functions are safe for concurrent use; engines are stateless.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
