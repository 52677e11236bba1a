package priority

import (
	"slices"

	"github.com/IvanBrykalov/prioritymap/tick"
)

// entry is one context's contribution to a Value.
type entry[V any] struct {
	created  uint64 // tick of the write that produced this entry
	priority int
	value    V
}

// Value holds at most one contribution per context and exposes exactly one
// of them: the highest priority, and among equal priorities the most recent.
//
// The zero value is an empty Value stamping writes from tick.Global().
// A Value is not safe for concurrent use.
type Value[V any] struct {
	ticks    tick.Source
	contexts map[string]entry[V]

	// Memoized result of resolve; valid only while hasCache is set.
	cache    V
	hasCache bool
}

// NewValue returns an empty Value.
func NewValue[V any](opts ...ValueOption) *Value[V] {
	var cfg valueConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &Value[V]{ticks: cfg.ticks}
}

// Get returns the winning value, or false if no context holds one.
func (p *Value[V]) Get() (V, bool) {
	if p.hasCache {
		return p.cache, true
	}
	w, ok := resolve(p.contexts)
	if !ok {
		var zero V
		return zero, false
	}
	p.cache, p.hasCache = w.value, true
	return w.value, true
}

// Set stores v for DefaultContext with DefaultPriority.
func (p *Value[V]) Set(v V) { p.SetWith(v, DefaultContext, DefaultPriority) }

// SetWith stores v for context, replacing anything that context held before
// (including its recency).
func (p *Value[V]) SetWith(v V, context string, priority int) {
	created := p.source().Next()
	p.mutate(func(m map[string]entry[V]) {
		m[context] = entry[V]{created: created, priority: priority, value: v}
	})
}

// Delete removes the DefaultContext contribution.
func (p *Value[V]) Delete() { p.DeleteFrom(DefaultContext) }

// DeleteFrom removes context's contribution. Absent contexts are a no-op.
func (p *Value[V]) DeleteFrom(context string) {
	p.mutate(func(m map[string]entry[V]) { delete(m, context) })
}

// Clear removes every contribution.
func (p *Value[V]) Clear() {
	p.mutate(func(m map[string]entry[V]) { clear(m) })
}

// IsEmpty reports whether no context holds a value.
func (p *Value[V]) IsEmpty() bool { return len(p.contexts) == 0 }

// Len returns the number of live contexts.
func (p *Value[V]) Len() int { return len(p.contexts) }

// Lookup returns what context itself contributed, whether or not it wins.
func (p *Value[V]) Lookup(context string) (v V, priority int, ok bool) {
	e, ok := p.contexts[context]
	if !ok {
		return v, 0, false
	}
	return e.value, e.priority, true
}

// Contexts returns the live context labels, sorted.
func (p *Value[V]) Contexts() []string {
	out := make([]string, 0, len(p.contexts))
	for c := range p.contexts {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// mutate is the only write path: it drops the memoized result before
// touching the contexts.
func (p *Value[V]) mutate(fn func(m map[string]entry[V])) {
	var zero V
	p.cache, p.hasCache = zero, false
	if p.contexts == nil {
		p.contexts = make(map[string]entry[V], 1)
	}
	fn(p.contexts)
}

func (p *Value[V]) source() tick.Source {
	if p.ticks == nil {
		p.ticks = tick.Global()
	}
	return p.ticks
}

// resolve picks the winner: higher priority always wins, equal priorities go
// to the later tick. Ticks are unique, so the result does not depend on map
// iteration order.
func resolve[V any](m map[string]entry[V]) (best entry[V], ok bool) {
	for _, c := range m {
		if !ok ||
			c.priority > best.priority ||
			(c.created > best.created && c.priority >= best.priority) {
			best, ok = c, true
		}
	}
	return best, ok
}
