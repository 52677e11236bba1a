// Package priority implements values and maps that accept contributions from
// several writers ("contexts") but expose exactly one effective value.
//
// Resolution
//
// Each context holds at most one entry per key: a value, an integer priority
// and the tick of the write. The effective value is the entry with the
// highest priority; among equal priorities the most recently written one
// wins. Writing a context again replaces its entry, recency included.
//
//	m := priority.New[string, string](priority.Options{})
//	m.SetWith("search", "off", "defaults", 1)
//	m.SetWith("search", "on", "ops", 10)
//	v, _ := m.Get("search") // "on"
//	m.DeleteFrom("search", "ops")
//	v, _ = m.Get("search")  // "off"
//
// Caching
//
// Value memoizes its winner and Map keeps a per-key result cache on top.
// Every write path drops the affected cache entry before mutating, so a Get
// right after a write always reflects it.
//
// Pruning
//
// A Map key exists only while at least one context contributes to it. Deleting
// the last context removes the key from Keys, Values, ToMap and Len.
//
// Concurrency
//
// Value and Map are not safe for concurrent use. Synced shards a Map behind
// per-shard mutexes for callers that need it.
package priority
