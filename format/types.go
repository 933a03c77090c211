package format

import (
	"fmt"
	"strings"

	"github.com/arloliu/vecopt/errs"
)

type (
	RoundingMode    uint8
	CompressionType uint8
)

const (
	RoundHalfAwayFromZero RoundingMode = 0x1 // RoundHalfAwayFromZero rounds 0.125 to 0.13.
	RoundHalfEven         RoundingMode = 0x2 // RoundHalfEven rounds 0.125 to 0.12.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (r RoundingMode) String() string {
	switch r {
	case RoundHalfAwayFromZero:
		return "half_away"
	case RoundHalfEven:
		return "half_even"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is a known rounding mode.
func (r RoundingMode) Valid() bool {
	return r == RoundHalfAwayFromZero || r == RoundHalfEven
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseRoundingMode parses the configuration spelling of a rounding mode.
// Accepted values are "half_away" and "half_even" (case-insensitive).
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half_away", "half-away", "away":
		return RoundHalfAwayFromZero, nil
	case "half_even", "half-even", "even", "bankers":
		return RoundHalfEven, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidRoundingMode, s)
	}
}

// ParseCompressionType parses a compression name such as "zstd" or "none".
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidCompression, s)
	}
}
