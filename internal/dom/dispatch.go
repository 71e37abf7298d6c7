// internal/dom/dispatch.go
package dom

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// ListenerError wraps an error returned by a listener during dispatch.
type ListenerError struct {
	Handle bridge.Handle
	Type   string
	// Index is the listener's position in the bucket snapshot.
	Index int
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d for %q on node %d failed: %v", e.Index, e.Type, e.Handle, e.Err)
}

// Unwrap returns the listener's error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Dispatcher invokes registered listeners for a node and reports the resulting flags.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
	isolate  bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithIsolatedListeners makes a failing listener get logged and skipped instead of
// aborting the listeners after it.
func WithIsolatedListeners(isolate bool) DispatcherOption {
	return func(d *Dispatcher) { d.isolate = isolate }
}

// WithDispatchLogger sets the logger used for isolated listener failures.
func WithDispatchLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger.Named("dispatch")
		}
	}
}

// NewDispatcher creates a dispatcher reading from registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the listeners registered for (node, evt.Type()) in registration order,
// synchronously, then returns the event's flags. The bucket is snapshotted first, so
// listeners registered during the dispatch do not run in it.
//
// By default the first listener error stops the dispatch and is returned as a
// *ListenerError; the flags set so far are still reported.
func (d *Dispatcher) Dispatch(node *Node, evt *Event) (DispatchResult, error) {
	listeners := d.registry.Listeners(node.Handle(), evt.Type())

	for i, l := range listeners {
		if err := l.HandleEvent(node, evt); err != nil {
			lerr := &ListenerError{Handle: node.Handle(), Type: evt.Type(), Index: i, Err: err}
			if !d.isolate {
				return evt.Result(), lerr
			}
			d.logger.Warn("Listener failed; continuing with remaining listeners",
				zap.Int64("handle", int64(node.Handle())),
				zap.String("type", evt.Type()),
				zap.Int("index", i),
				zap.Error(err),
			)
		}
	}
	return evt.Result(), nil
}
