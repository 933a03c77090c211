// Package compress provides the codecs used to shrink cached result payloads.
//
// A cached result is a little-endian float64 vector. Transformed values live
// in [-1, 1] and, because inputs are quantized to two decimals, repeat often,
// so general-purpose compression pays off for large results.
//
// Supported algorithms:
//   - None (format.CompressionNone): bytes are passed through unchanged.
//   - Zstd (format.CompressionZstd): best ratio, moderate speed. Pure Go
//     (klauspost/compress) by default; build with cgo and the "gozstd" tag to
//     use the libzstd binding (valyala/gozstd).
//   - S2 (format.CompressionS2): fast Snappy-compatible compression.
//   - LZ4 (format.CompressionLZ4): fastest decompression.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionS2)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(payload)
//	...
//	payload, err = codec.Decompress(packed)
//
// # Thread Safety
//
// All built-in codecs are stateless values backed by pooled encoders and are
// safe for concurrent use.
package compress
