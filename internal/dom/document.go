// internal/dom/document.go
package dom

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Document is the entry point for page scripts: it queries and creates nodes through
// the bridge and owns the listener registry and dispatcher for its nodes.
type Document struct {
	id         string
	caller     bridge.Caller
	registry   *Registry
	dispatcher *Dispatcher
	logger     *zap.Logger

	dispatchOpts []DispatcherOption
}

// Option configures a Document.
type Option func(*Document)

// WithRegistry shares an existing registry instead of creating a private one.
func WithRegistry(r *Registry) Option {
	return func(d *Document) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithLogger sets the document's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDispatchOptions passes options through to the document's dispatcher.
func WithDispatchOptions(opts ...DispatcherOption) Option {
	return func(d *Document) {
		d.dispatchOpts = append(d.dispatchOpts, opts...)
	}
}

// NewDocument creates a document that talks to the host through caller.
func NewDocument(caller bridge.Caller, opts ...Option) *Document {
	d := &Document{
		id:     uuid.NewString(),
		caller: caller,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	d.logger = d.logger.Named("document").With(zap.String("document_id", d.id))

	dispatchOpts := append([]DispatcherOption{WithDispatchLogger(d.logger)}, d.dispatchOpts...)
	d.dispatcher = NewDispatcher(d.registry, dispatchOpts...)
	return d
}

// ID returns the document's unique identifier.
func (d *Document) ID() string {
	return d.id
}

// Registry returns the listener registry used by this document.
func (d *Document) Registry() *Registry {
	return d.registry
}

// Node wraps a handle in a new proxy.
func (d *Document) Node(h bridge.Handle) *Node {
	return &Node{handle: h, doc: d}
}

// QuerySelectorAll asks the host for every node matching selector, in document order.
func (d *Document) QuerySelectorAll(selector string) ([]*Node, error) {
	res, err := d.caller.Call(bridge.OpQuerySelectorAll, selector)
	if err != nil {
		return nil, err
	}
	return d.wrapAll(bridge.OpQuerySelectorAll, res)
}

// CreateElement asks the host for a new, detached element.
func (d *Document) CreateElement(tag string) (*Node, error) {
	res, err := d.caller.Call(bridge.OpCreateElement, tag)
	if err != nil {
		return nil, err
	}
	h, err := bridge.AsHandle(res)
	if err != nil {
		return nil, &bridge.ResultError{Op: bridge.OpCreateElement, Result: res}
	}
	return d.Node(h), nil
}

// Log forwards one value to the host's console.
func (d *Document) Log(value any) error {
	_, err := d.caller.Call(bridge.OpLog, value)
	return err
}

// DispatchEvent is the host's way back in: it raises eventType on the node named by h
// with a fresh Event and reports the flags.
func (d *Document) DispatchEvent(h bridge.Handle, eventType string) (DispatchResult, error) {
	res, err := d.Node(h).DispatchEvent(NewEvent(eventType))
	if err != nil {
		d.logger.Debug("Dispatch aborted by listener error",
			zap.Int64("handle", int64(h)),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
	return res, err
}

func (d *Document) wrapAll(op string, res any) ([]*Node, error) {
	handles, err := bridge.AsHandles(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", &bridge.ResultError{Op: op, Result: res}, err)
	}
	nodes := make([]*Node, len(handles))
	for i, h := range handles {
		nodes[i] = d.Node(h)
	}
	return nodes, nil
}
