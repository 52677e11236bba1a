package util

import "runtime"

// MaxShards caps the automatic shard count of a Synced map.
const MaxShards = 64

// ShardCount normalizes a requested shard count: n <= 0 picks
// nextPow2(GOMAXPROCS), anything else is rounded up to a power of two.
// The result is clamped to [1..MaxShards].
func ShardCount(n int) int {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 1 {
		n = 1
	}
	s := int(NextPow2(uint64(n)))
	if s > MaxShards {
		s = MaxShards
	}
	return s
}

// ShardIndex maps a 64-bit hash to a shard index.
// Fast mask path for power-of-two counts, modulo otherwise.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
