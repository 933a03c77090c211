package compress

// ZstdCompressor provides Zstandard compression.
//
// The implementation is selected at build time: pure Go by default, or the
// libzstd binding with cgo and the "gozstd" build tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
