// Package cache memoizes transformation results.
//
// Results are keyed by an xxHash64 of (dimension, samples) and stored as
// compressed float64 payloads in a Store: an in-process LRU (MemoryStore) or
// Redis (RedisStore). Concurrent requests for the same key are collapsed with
// singleflight, so at most one computation per key is in flight.
//
// A cache never changes results. Store failures and undecodable entries are
// logged and treated as misses.
//
// Payload layout (all integers in the configured byte order):
//
//	+---------+-------------+-------+---------------------------------+
//	| version | compression | order | compressed(count:u32, values..) |
//	+---------+-------------+-------+---------------------------------+
//
// The header is never compressed, so instances configured with different
// codecs or byte orders can share one Redis tier.
package cache
