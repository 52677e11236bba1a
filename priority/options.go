package priority

import (
	"log/slog"

	"github.com/IvanBrykalov/prioritymap/tick"
)

const (
	// DefaultContext is the context used by Set/Delete when none is given.
	DefaultContext = "Default"
	// DefaultPriority is the priority used by Set when none is given.
	DefaultPriority = 1
)

// Options configures a Map or Synced. Zero values are safe;
// defaults are applied in New/NewSynced:
//   - nil Ticks    => tick.Global()
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => discard
//   - Shards <= 0  => auto (Synced only, rounded up to power of two)
type Options struct {
	// Ticks stamps every write for the recency tie-break.
	// Synced requires a Source that is safe for concurrent use.
	Ticks tick.Source

	// Metrics receives cache hit/miss, prune and size signals.
	Metrics Metrics

	// Logger receives Debug lines for prunes and clears.
	Logger *slog.Logger

	// Shards is the number of independently locked partitions of a Synced map.
	// Ignored by Map.
	Shards int
}

func (o Options) withDefaults() Options {
	if o.Ticks == nil {
		o.Ticks = tick.Global()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// ValueOption configures a standalone Value.
type ValueOption func(*valueConfig)

type valueConfig struct {
	ticks tick.Source
}

// WithTicks makes a Value stamp its writes from src instead of tick.Global().
func WithTicks(src tick.Source) ValueOption {
	return func(c *valueConfig) { c.ticks = src }
}
