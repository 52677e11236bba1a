package layers

import (
	"log/slog"
	"sync"
)

// Target is a priority map with string keys and values.
// *priority.Map[string, string] and *priority.Synced[string, string] both
// satisfy it.
type Target interface {
	SetWith(k, v string, context string, priority int)
	DeleteFrom(k string, context string)
	Lookup(k string, context string) (v string, priority int, ok bool)
}

// Result summarizes one Apply.
type Result struct {
	Set       int // values written
	Unchanged int // values already present with the same priority
	Retracted int // values a context stopped contributing
}

// Applier applies successive documents to a Target, remembering which keys
// each context wrote so a reload can retract keys a layer dropped. Contexts
// written by other code are never touched.
//
// The zero value is ready to use. Safe for concurrent use, but Apply calls
// are serialized.
type Applier struct {
	// Logger receives a Debug line per Apply; nil discards it.
	Logger *slog.Logger

	mu    sync.Mutex
	owned map[string]map[string]struct{} // context -> keys
}

// Apply writes every value of doc into t and retracts what earlier documents
// contributed but doc no longer does, including whole layers that vanished.
//
// A value the layer's context already holds at the same priority is left
// alone, so it keeps its original write order: reloading an unchanged file
// does not let it overtake equal-priority writes made since.
func (a *Applier) Apply(t Target, doc *Document) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res Result
	next := make(map[string]map[string]struct{}, len(doc.Layers))
	for _, l := range doc.Layers {
		keys := make(map[string]struct{}, len(l.Values))
		for k, v := range l.Values {
			keys[k] = struct{}{}
			if cur, prio, ok := t.Lookup(k, l.Context); ok && cur == v && prio == l.Rank() {
				res.Unchanged++
				continue
			}
			t.SetWith(k, v, l.Context, l.Rank())
			res.Set++
		}
		next[l.Context] = keys
	}

	for ctx, keys := range a.owned {
		for k := range keys {
			if _, still := next[ctx][k]; still {
				continue
			}
			t.DeleteFrom(k, ctx)
			res.Retracted++
		}
	}
	a.owned = next

	if a.Logger != nil {
		a.Logger.Debug("layers: applied",
			slog.Int("layers", len(doc.Layers)),
			slog.Int("set", res.Set),
			slog.Int("unchanged", res.Unchanged),
			slog.Int("retracted", res.Retracted))
	}
	return res
}
