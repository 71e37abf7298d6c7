// internal/dom/event.go
package dom

import "sync"

// Event carries an event type and two independent control flags. The flags only move
// one way: default allowed -> prevented, propagating -> stopped. A new dispatch needs
// a new Event.
type Event struct {
	typ string

	mu                 sync.Mutex
	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent returns an event with the default action allowed and propagation running.
func NewEvent(eventType string) *Event {
	return &Event{typ: eventType}
}

// Type returns the event type.
func (e *Event) Type() string {
	return e.typ
}

// PreventDefault asks the host to skip its default action.
func (e *Event) PreventDefault() {
	e.mu.Lock()
	e.defaultPrevented = true
	e.mu.Unlock()
}

// StopPropagation asks the host not to propagate the event to other nodes. Listeners
// on the current node still run.
func (e *Event) StopPropagation() {
	e.mu.Lock()
	e.propagationStopped = true
	e.mu.Unlock()
}

// DefaultAllowed reports whether no listener has called PreventDefault.
func (e *Event) DefaultAllowed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.defaultPrevented
}

// PropagationStopped reports whether a listener has called StopPropagation.
func (e *Event) PropagationStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.propagationStopped
}

// Result snapshots both flags.
func (e *Event) Result() DispatchResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return DispatchResult{
		DefaultAllowed:     !e.defaultPrevented,
		PropagationStopped: e.propagationStopped,
	}
}

// DispatchResult is what a dispatch reports back to the host, which decides whether to
// run the default action and whether to keep propagating.
type DispatchResult struct {
	DefaultAllowed     bool
	PropagationStopped bool
}
