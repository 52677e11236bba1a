package priority

import (
	"iter"
	"log/slog"
)

// Map associates each key with a Value: several contexts may write the same
// key, and Get returns the single winner (highest priority, then most
// recent).
//
// Resolved results are cached per key; any Set/Delete touching a key drops
// that key's cached result, Clear drops them all. A key disappears as soon as
// its last context is deleted.
//
// The zero value is ready to use with default Options.
// A Map is not safe for concurrent use; see Synced.
type Map[K comparable, V any] struct {
	slots map[K]*node[K, V]
	head  *node[K, V] // oldest key
	tail  *node[K, V] // newest key

	// cache mirrors slots[k].val.Get() for keys resolved since their last write.
	cache map[K]V

	opt Options
}

// New constructs an empty Map with the provided Options.
func New[K comparable, V any](opt Options) *Map[K, V] {
	return &Map[K, V]{
		slots: make(map[K]*node[K, V]),
		cache: make(map[K]V),
		opt:   opt.withDefaults(),
	}
}

// Get returns the winning value for k and whether one exists.
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.init()
	if v, ok := m.cache[k]; ok {
		m.opt.Metrics.Hit()
		return v, true
	}
	m.opt.Metrics.Miss()

	n, ok := m.slots[k]
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := n.val.Get()
	if ok {
		m.cache[k] = v
	}
	return v, ok
}

// Set stores v for k under DefaultContext with DefaultPriority.
func (m *Map[K, V]) Set(k K, v V) { m.SetWith(k, v, DefaultContext, DefaultPriority) }

// SetWith stores v for k under context with the given priority, replacing
// that context's previous contribution to k.
func (m *Map[K, V]) SetWith(k K, v V, context string, priority int) {
	m.init()
	delete(m.cache, k)

	n, ok := m.slots[k]
	if !ok {
		n = &node[K, V]{key: k, val: Value[V]{ticks: m.opt.Ticks}}
		m.slots[k] = n
		m.pushBack(n)
		m.opt.Metrics.Size(len(m.slots))
	}
	n.val.SetWith(v, context, priority)
}

// Delete removes the DefaultContext contribution to k.
func (m *Map[K, V]) Delete(k K) { m.DeleteFrom(k, DefaultContext) }

// DeleteFrom removes context's contribution to k. If no context is left the
// key is pruned. Missing keys and contexts are a no-op.
func (m *Map[K, V]) DeleteFrom(k K, context string) {
	m.init()
	delete(m.cache, k)

	n, ok := m.slots[k]
	if !ok {
		return
	}
	n.val.DeleteFrom(context)
	if !n.val.IsEmpty() {
		return
	}
	m.unlink(n)
	delete(m.slots, k)
	m.opt.Metrics.Prune()
	m.opt.Metrics.Size(len(m.slots))
	m.opt.Logger.Debug("priority: key pruned", slog.Any("key", k), slog.String("context", context))
}

// Has reports whether k currently resolves to a value.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Contexts returns the contexts currently contributing to k, sorted.
func (m *Map[K, V]) Contexts(k K) []string {
	n, ok := m.slots[k]
	if !ok {
		return nil
	}
	return n.val.Contexts()
}

// Lookup returns what context itself contributes to k, whether or not it
// wins. It does not touch the result cache.
func (m *Map[K, V]) Lookup(k K, context string) (v V, priority int, ok bool) {
	n, found := m.slots[k]
	if !found {
		return v, 0, false
	}
	return n.val.Lookup(context)
}

// ToMap returns a snapshot of every key with its resolved value.
func (m *Map[K, V]) ToMap() map[K]V {
	out := make(map[K]V, len(m.slots))
	for n := m.head; n != nil; n = n.next {
		if v, ok := m.Get(n.key); ok {
			out[n.key] = v
		}
	}
	return out
}

// Keys returns the keys in insertion order. A key that was pruned and set
// again counts as newly inserted.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, len(m.slots))
	for n := m.head; n != nil; n = n.next {
		out = append(out, n.key)
	}
	return out
}

// Values returns the resolved values in the same order as Keys.
func (m *Map[K, V]) Values() []V {
	out := make([]V, 0, len(m.slots))
	for _, kv := range m.snapshot() {
		out = append(out, kv.val)
	}
	return out
}

// ForEach calls fn once per resolved key. It walks a snapshot taken before
// the first call, so fn may modify m.
func (m *Map[K, V]) ForEach(fn func(v V, k K, m *Map[K, V])) {
	for _, kv := range m.snapshot() {
		fn(kv.val, kv.key, m)
	}
}

// All returns an iterator over resolved key/value pairs in insertion order.
// Like ForEach it iterates a snapshot.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, kv := range m.snapshot() {
			if !yield(kv.key, kv.val) {
				return
			}
		}
	}
}

// Clear removes every key and every cached result.
func (m *Map[K, V]) Clear() {
	m.init()
	n := len(m.slots)
	clear(m.slots)
	clear(m.cache)
	m.head, m.tail = nil, nil
	m.opt.Metrics.Size(0)
	m.opt.Logger.Debug("priority: cleared", slog.Int("keys", n))
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int { return len(m.slots) }

// IsEmpty reports whether the map holds no keys.
//
// Note: an earlier implementation of this type returned true for a
// non-empty map. IsEmpty uses the conventional meaning.
func (m *Map[K, V]) IsEmpty() bool { return len(m.slots) == 0 }

type pair[K comparable, V any] struct {
	key K
	val V
}

func (m *Map[K, V]) snapshot() []pair[K, V] {
	out := make([]pair[K, V], 0, len(m.slots))
	for n := m.head; n != nil; n = n.next {
		if v, ok := m.Get(n.key); ok {
			out = append(out, pair[K, V]{key: n.key, val: v})
		}
	}
	return out
}

// init applies defaults for a zero-value Map.
func (m *Map[K, V]) init() {
	if m.slots != nil {
		return
	}
	m.slots = make(map[K]*node[K, V])
	m.cache = make(map[K]V)
	m.opt = m.opt.withDefaults()
}
