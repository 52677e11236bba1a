package priority

// Bool is a Value[bool] with switch-style helpers, handy for feature flags
// toggled from several places.
type Bool struct {
	Value[bool]
}

// NewBool returns an empty Bool.
func NewBool(opts ...ValueOption) *Bool {
	return &Bool{Value: *NewValue[bool](opts...)}
}

// Enable sets true for DefaultContext with DefaultPriority.
func (b *Bool) Enable() { b.SetWith(true, DefaultContext, DefaultPriority) }

// Disable sets false for DefaultContext with DefaultPriority.
func (b *Bool) Disable() { b.SetWith(false, DefaultContext, DefaultPriority) }

// EnableWith sets true for context at priority.
func (b *Bool) EnableWith(context string, priority int) { b.SetWith(true, context, priority) }

// DisableWith sets false for context at priority.
func (b *Bool) DisableWith(context string, priority int) { b.SetWith(false, context, priority) }

// Enabled returns the resolved flag; an empty Bool reports false.
func (b *Bool) Enabled() bool {
	v, _ := b.Get()
	return v
}
