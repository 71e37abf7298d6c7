// internal/host/propagate/propagate.go
package propagate

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/dom"
)

// EventSink runs the script-side listeners for one node.
type EventSink interface {
	DispatchEvent(ctx context.Context, h bridge.Handle, eventType string) (dom.DispatchResult, error)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, h bridge.Handle, eventType string) (dom.DispatchResult, error)

// DispatchEvent calls f.
func (f SinkFunc) DispatchEvent(ctx context.Context, h bridge.Handle, eventType string) (dom.DispatchResult, error) {
	return f(ctx, h, eventType)
}

// DocumentSink dispatches straight on a document, without a script runtime.
func DocumentSink(doc *dom.Document) EventSink {
	return SinkFunc(func(_ context.Context, h bridge.Handle, eventType string) (dom.DispatchResult, error) {
		return doc.DispatchEvent(h, eventType)
	})
}

// ParentLookup resolves a node's parent element on the host.
type ParentLookup interface {
	Parent(h bridge.Handle) (parent bridge.Handle, ok bool, err error)
}

// Outcome summarizes one propagated event.
type Outcome struct {
	// Prevented is true when a listener anywhere on the path called preventDefault,
	// not only a listener on the target.
	Prevented bool
	// Path lists the handles dispatched at, target first.
	Path []bridge.Handle
}

// Fire dispatches eventType at target and then at each ancestor in turn, stopping after
// the node whose listeners stopped propagation. A nil parents confines the event to
// the target. Each node on the path gets a fresh event.
func Fire(ctx context.Context, sink EventSink, parents ParentLookup, target bridge.Handle, eventType string) (Outcome, error) {
	var out Outcome
	for h := target; ; {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		out.Path = append(out.Path, h)
		res, err := sink.DispatchEvent(ctx, h, eventType)
		if !res.DefaultAllowed {
			out.Prevented = true
		}
		if err != nil {
			return out, fmt.Errorf("dispatch of %q at node %d failed: %w", eventType, h, err)
		}
		if res.PropagationStopped || parents == nil {
			return out, nil
		}

		parent, ok, err := parents.Parent(h)
		if err != nil {
			return out, fmt.Errorf("failed to resolve parent of node %d: %w", h, err)
		}
		if !ok {
			return out, nil
		}
		h = parent
	}
}
