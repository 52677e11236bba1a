// Package tick provides the monotonic sequence used to stamp priority writes.
//
// Ticks only order writes; they carry no wall-clock meaning. A Source must
// return a strictly larger value on every call for its whole lifetime, so the
// "most recent write wins" tie-break can never be fooled by a reset.
package tick

import (
	"sync"

	"github.com/IvanBrykalov/prioritymap/internal/util"
)

// Source hands out strictly increasing ticks.
type Source interface {
	Next() uint64
}

// Counter is a lock-free Source. The zero value is ready to use and starts
// at 1. Safe for concurrent use.
type Counter struct {
	n util.PaddedAtomicUint64
}

// NewCounter returns a fresh Counter.
func NewCounter() *Counter { return &Counter{} }

// Next returns the next tick.
func (c *Counter) Next() uint64 { return c.n.Add(1) }

// Last returns the most recently issued tick (0 if none).
func (c *Counter) Last() uint64 { return c.n.Load() }

var (
	globalOnce sync.Once
	global     *Counter
)

// Global returns the process-wide counter. It is created on first use and
// never reset.
func Global() *Counter {
	globalOnce.Do(func() { global = NewCounter() })
	return global
}

// Func adapts a plain function to Source. Tests use it to script tick
// sequences; the function itself must keep values increasing.
type Func func() uint64

// Next calls f.
func (f Func) Next() uint64 { return f() }

var (
	_ Source = (*Counter)(nil)
	_ Source = Func(nil)
)
