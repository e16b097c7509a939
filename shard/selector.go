package shard

import "hash/fnv"

/*
This file decides HOW a cache key is assigned to a shard.
If every key went to the same shard, its lock and its stat table would
become the bottleneck under concurrent Gets.
*/

// Selector decides which shard should handle a given key.
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector maps a key to a shard by FNV-1a hash modulo the shard count.
// The same key always lands on the same shard.
type HashSelector struct{}

// hash converts a string key into a number. FNV is a fast, non-cryptographic hash.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	idx := hash(key) % uint32(len(shards))
	return shards[idx]
}
