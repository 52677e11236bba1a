package priority

// Metrics exposes map-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	// Hit is called when Get is served from the key-level result cache.
	Hit()
	// Miss is called when Get has to resolve the key (or the key is absent).
	Miss()
	// Prune is called when a key is dropped because its last context was deleted.
	Prune()
	// Size reports the number of keys after a structural change.
	Size(keys int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()     {}
func (NoopMetrics) Miss()    {}
func (NoopMetrics) Prune()   {}
func (NoopMetrics) Size(int) {}

var _ Metrics = NoopMetrics{}
