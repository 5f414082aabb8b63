package emit

// Emitter receives observability events from workflow execution.
//
// Implementations must be safe for concurrent use, must not block workflow
// execution, and must not panic; backend failures are handled internally,
// never surfaced to the engine.
type Emitter interface {
	Emit(event Event)
}
