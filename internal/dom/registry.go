// internal/dom/registry.go
package dom

import (
	"sync"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Listener handles an event raised on a node.
type Listener interface {
	HandleEvent(node *Node, evt *Event) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(node *Node, evt *Event) error

// HandleEvent implements Listener.
func (f ListenerFunc) HandleEvent(node *Node, evt *Event) error {
	return f(node, evt)
}

// Registry maps (handle, event type) to listeners in registration order. It holds no
// reference to any Node value, so a listener stays registered after the Node that
// registered it is gone.
type Registry struct {
	mu      sync.RWMutex
	buckets map[bridge.Handle]map[string][]Listener
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{buckets: make(map[bridge.Handle]map[string][]Listener)}
}

// Add appends l to the (h, eventType) bucket. The same listener added twice runs twice.
func (r *Registry) Add(h bridge.Handle, eventType string, l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType, ok := r.buckets[h]
	if !ok {
		byType = make(map[string][]Listener)
		r.buckets[h] = byType
	}
	byType[eventType] = append(byType[eventType], l)
}

// Listeners returns a snapshot of the (h, eventType) bucket. Listeners added after the
// snapshot is taken are not part of it. A missing bucket is an empty list.
func (r *Registry) Listeners(h bridge.Handle, eventType string) []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.buckets[h][eventType]
	if len(list) == 0 {
		return nil
	}
	out := make([]Listener, len(list))
	copy(out, list)
	return out
}

// Len returns the number of listeners in the (h, eventType) bucket.
func (r *Registry) Len(h bridge.Handle, eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buckets[h][eventType])
}

// Clear drops every bucket. Used when a page's scripts are reloaded wholesale.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets = make(map[bridge.Handle]map[string][]Listener)
}
