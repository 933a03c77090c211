// Package metrics derives the performance figures reported with every result.
package metrics

import (
	"math"
	"time"
)

// BytesPerSample is the modelled footprint of one float64 sample.
const BytesPerSample = 8

const bytesPerMiB = 1024 * 1024

// Metrics is the read-only performance record of one processed job.
type Metrics struct {
	// ProcessingTimeMs is the wall-clock time spent, in milliseconds.
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	// MemoryUsageMb estimates the sample footprint, n*8/1048576. It is not
	// measured process memory.
	MemoryUsageMb float64 `json:"memory_usage_mb"`
	// Throughput is samples per second of wall-clock time.
	Throughput float64 `json:"throughput"`
}

// Since computes metrics for count samples processed since start.
func Since(start time.Time, count int) Metrics {
	return Compute(time.Since(start), count)
}

// Compute derives metrics from an elapsed duration and a sample count.
//
// A negative elapsed time is treated as zero. Throughput is 0 when count is 0.
// When count is positive but the elapsed time measures as zero, throughput
// saturates to math.MaxFloat64 so the value stays finite and JSON-encodable.
func Compute(elapsed time.Duration, count int) Metrics {
	elapsed = max(elapsed, 0)
	count = max(count, 0)

	seconds := elapsed.Seconds()
	m := Metrics{
		ProcessingTimeMs: seconds * 1000,
		MemoryUsageMb:    float64(count) * BytesPerSample / bytesPerMiB,
	}

	switch {
	case count == 0:
		m.Throughput = 0
	case seconds == 0:
		m.Throughput = math.MaxFloat64
	default:
		m.Throughput = min(float64(count)/seconds, math.MaxFloat64)
	}

	return m
}
