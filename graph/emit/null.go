package emit

// NullEmitter discards all events. Useful as a default when observability is
// not configured and in benchmarks.
type NullEmitter struct{}

// NewNullEmitter creates an emitter that drops every event.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit implements Emitter by doing nothing.
func (n *NullEmitter) Emit(Event) {}
