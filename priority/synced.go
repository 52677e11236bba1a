package priority

import (
	"hash/maphash"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/prioritymap/internal/util"
)

// Synced is a Map safe for concurrent use. Keys are spread over shards, each
// an independent Map behind its own mutex, so writers of different keys
// rarely contend.
//
// All shards stamp writes from the same Options.Ticks, which must be safe for
// concurrent use (tick.Counter is). Whole-map views (Keys, ToMap, Len, ...)
// lock one shard at a time and are not atomic snapshots. Keys are grouped by
// shard, insertion-ordered within each shard.
type Synced[K comparable, V any] struct {
	shards []*syncShard[K, V]
	seed   maphash.Seed

	keys atomic.Int64 // map-wide key count, fed by shardMetrics
}

type syncShard[K comparable, V any] struct {
	// Get fills the result cache, so reads take the full lock too.
	mu sync.Mutex
	m  *Map[K, V]
}

// NewSynced constructs an empty Synced with the provided Options.
func NewSynced[K comparable, V any](opt Options) *Synced[K, V] {
	opt = opt.withDefaults()
	n := util.ShardCount(opt.Shards)

	s := &Synced[K, V]{
		shards: make([]*syncShard[K, V], n),
		seed:   maphash.MakeSeed(),
	}
	for i := range s.shards {
		so := opt
		so.Metrics = &shardMetrics{parent: opt.Metrics, total: &s.keys}
		s.shards[i] = &syncShard[K, V]{m: New[K, V](so)}
	}
	return s
}

// Get returns the winning value for k and whether one exists.
func (s *Synced[K, V]) Get(k K) (V, bool) {
	sh := s.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.m.Get(k)
}

// Set stores v for k under DefaultContext with DefaultPriority.
func (s *Synced[K, V]) Set(k K, v V) { s.SetWith(k, v, DefaultContext, DefaultPriority) }

// SetWith stores v for k under context with the given priority.
func (s *Synced[K, V]) SetWith(k K, v V, context string, priority int) {
	sh := s.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.m.SetWith(k, v, context, priority)
}

// Delete removes the DefaultContext contribution to k.
func (s *Synced[K, V]) Delete(k K) { s.DeleteFrom(k, DefaultContext) }

// DeleteFrom removes context's contribution to k, pruning k when it drains.
func (s *Synced[K, V]) DeleteFrom(k K, context string) {
	sh := s.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.m.DeleteFrom(k, context)
}

// Has reports whether k currently resolves to a value.
func (s *Synced[K, V]) Has(k K) bool {
	_, ok := s.Get(k)
	return ok
}

// Lookup returns what context itself contributes to k, whether or not it wins.
func (s *Synced[K, V]) Lookup(k K, context string) (v V, priority int, ok bool) {
	sh := s.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.m.Lookup(k, context)
}

// Update runs fn with exclusive access to the shard owning k. fn must only
// touch k (other keys may live in other shards) and must not retain m.
func (s *Synced[K, V]) Update(k K, fn func(m *Map[K, V])) {
	sh := s.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.m)
}

// Len returns the number of keys across all shards.
func (s *Synced[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += sh.m.Len()
		sh.mu.Unlock()
	}
	return total
}

// IsEmpty reports whether no shard holds a key.
func (s *Synced[K, V]) IsEmpty() bool { return s.Len() == 0 }

// Clear empties every shard.
func (s *Synced[K, V]) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.m.Clear()
		sh.mu.Unlock()
	}
}

// Keys returns all keys, shard by shard.
func (s *Synced[K, V]) Keys() []K {
	var out []K
	s.each(func(m *Map[K, V]) { out = append(out, m.Keys()...) })
	return out
}

// Values returns the resolved values in the same order as Keys would.
func (s *Synced[K, V]) Values() []V {
	var out []V
	s.each(func(m *Map[K, V]) { out = append(out, m.Values()...) })
	return out
}

// ToMap returns a snapshot of every key with its resolved value.
func (s *Synced[K, V]) ToMap() map[K]V {
	out := make(map[K]V)
	s.each(func(m *Map[K, V]) {
		for k, v := range m.All() {
			out[k] = v
		}
	})
	return out
}

// ForEach calls fn for every resolved key. fn runs without any shard lock
// held and may call back into s.
func (s *Synced[K, V]) ForEach(fn func(v V, k K)) {
	var snap []pair[K, V]
	s.each(func(m *Map[K, V]) { snap = append(snap, m.snapshot()...) })
	for _, kv := range snap {
		fn(kv.val, kv.key)
	}
}

func (s *Synced[K, V]) each(fn func(m *Map[K, V])) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		fn(sh.m)
		sh.mu.Unlock()
	}
}

// shard picks a shard by hashing the key. maphash.Comparable agrees with ==,
// so pointer keys hash by address and +0/-0 floats share a shard.
func (s *Synced[K, V]) shard(k K) *syncShard[K, V] {
	return s.shards[util.ShardIndex(maphash.Comparable(s.seed, k), len(s.shards))]
}

// shardMetrics forwards a shard's signals to the user's Metrics, turning the
// shard-local Size into a map-wide key count. Calls arrive under the shard
// lock, so last needs no synchronization of its own.
type shardMetrics struct {
	parent Metrics
	total  *atomic.Int64
	last   int
}

func (m *shardMetrics) Hit()   { m.parent.Hit() }
func (m *shardMetrics) Miss()  { m.parent.Miss() }
func (m *shardMetrics) Prune() { m.parent.Prune() }

func (m *shardMetrics) Size(keys int) {
	delta := keys - m.last
	m.last = keys
	m.parent.Size(int(m.total.Add(int64(delta))))
}
