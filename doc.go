// Package prioritymap provides layered, priority-resolved values for
// configuration-like data: feature flags, settings, overrides.
//
// Several subsystems ("contexts") may each set a value for the same key; the
// consumer reads one deterministic value without knowing who won.
//
// Packages
//
//   - priority: Value, Bool, Map and the concurrent Synced map.
//     Higher priority wins; equal priorities go to the latest write.
//
//   - tick: the monotonic sequence used to order writes. tick.Global() is
//     shared process-wide; inject a tick.Counter or tick.Func in tests.
//
//   - layers: YAML layer documents (one context + priority per layer)
//     applied to a map, with file watching via fsnotify.
//
//   - metrics/prom: Prometheus adapter for priority.Metrics.
//
// Basic usage
//
//	m := priority.New[string, string](priority.Options{})
//	m.SetWith("log.level", "info", "defaults", 1)
//	m.SetWith("log.level", "debug", "cli", 100)
//	lvl, _ := m.Get("log.level") // "debug"
//
// Layers from YAML
//
//	doc, err := layers.Load("overrides.yaml")
//	if err != nil { ... }
//	var a layers.Applier
//	a.Apply(m, doc)
//
// Exporting metrics
//
//	met := prom.New(nil, "prioritymap", "flags", nil)
//	m := priority.New[string, bool](priority.Options{Metrics: met})
//
// Thread-safety
//
// priority.Map and priority.Value assume a single owner. Use priority.Synced
// (sharded, one mutex per shard) when several goroutines write.
package prioritymap
