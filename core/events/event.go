package events

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. logs, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder buffers events in memory. Hosts use it to publish a unit of work's
// events only after the unit commits.
type Recorder struct {
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.events = append(r.events, evt)
}

// Events returns the buffered events in emission order.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Flush forwards the buffered events to dst and clears the buffer.
func (r *Recorder) Flush(dst Emitter) {
	if r == nil {
		return
	}
	if dst != nil {
		for _, evt := range r.events {
			dst.Emit(evt)
		}
	}
	r.events = nil
}

// Reset drops the buffered events.
func (r *Recorder) Reset() {
	if r != nil {
		r.events = nil
	}
}
