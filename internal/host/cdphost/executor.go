// internal/host/cdphost/executor.go
package cdphost

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Executor defines the CDP commands the host issues, allowing for mocking during tests.
type Executor interface {
	// GetDocument returns the root node and enables the DOM domain.
	GetDocument(ctx context.Context) (*cdp.Node, error)

	// QuerySelectorAll runs a selector below nodeID.
	QuerySelectorAll(ctx context.Context, nodeID cdp.NodeID, selector string) ([]cdp.NodeID, error)

	// GetAttributes returns the node's attributes as a flat name, value list.
	GetAttributes(ctx context.Context, nodeID cdp.NodeID) ([]string, error)

	// MoveTo moves nodeID into target, before the given sibling when before is non-zero.
	MoveTo(ctx context.Context, nodeID, target, before cdp.NodeID) (cdp.NodeID, error)

	// Evaluate runs an expression in the page.
	Evaluate(ctx context.Context, expression string) (*runtime.RemoteObject, *runtime.ExceptionDetails, error)

	// RequestNode turns a remote object into a node id.
	RequestNode(ctx context.Context, objectID runtime.RemoteObjectID) (cdp.NodeID, error)

	// ResolveNode turns a node id into a remote object.
	ResolveNode(ctx context.Context, nodeID cdp.NodeID) (*runtime.RemoteObject, error)

	// CallFunctionOn executes a JavaScript function.
	CallFunctionOn(ctx context.Context, params *runtime.CallFunctionOnParams) (*runtime.RemoteObject, *runtime.ExceptionDetails, error)
}

// CDPExecutor is the production implementation of the Executor interface.
// It wraps the real chromedp library calls; ctx must carry a chromedp target.
type CDPExecutor struct{}

// NewCDPExecutor creates a new production-ready executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

var _ Executor = (*CDPExecutor)(nil)

func (e *CDPExecutor) GetDocument(ctx context.Context) (root *cdp.Node, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		root, err = dom.GetDocument().Do(ctx)
		return err
	}))
	return root, err
}

func (e *CDPExecutor) QuerySelectorAll(ctx context.Context, nodeID cdp.NodeID, selector string) (ids []cdp.NodeID, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		ids, err = dom.QuerySelectorAll(nodeID, selector).Do(ctx)
		return err
	}))
	return ids, err
}

func (e *CDPExecutor) GetAttributes(ctx context.Context, nodeID cdp.NodeID) (attrs []string, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		attrs, err = dom.GetAttributes(nodeID).Do(ctx)
		return err
	}))
	return attrs, err
}

func (e *CDPExecutor) MoveTo(ctx context.Context, nodeID, target, before cdp.NodeID) (moved cdp.NodeID, err error) {
	p := dom.MoveTo(nodeID, target)
	if before != 0 {
		p = p.WithInsertBeforeNodeID(before)
	}
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		moved, err = p.Do(ctx)
		return err
	}))
	return moved, err
}

func (e *CDPExecutor) Evaluate(ctx context.Context, expression string) (obj *runtime.RemoteObject, exc *runtime.ExceptionDetails, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err = runtime.Evaluate(expression).Do(ctx)
		return err
	}))
	return obj, exc, err
}

func (e *CDPExecutor) RequestNode(ctx context.Context, objectID runtime.RemoteObjectID) (id cdp.NodeID, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id, err = dom.RequestNode(objectID).Do(ctx)
		return err
	}))
	return id, err
}

func (e *CDPExecutor) ResolveNode(ctx context.Context, nodeID cdp.NodeID) (obj *runtime.RemoteObject, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err = dom.ResolveNode().WithNodeID(nodeID).Do(ctx)
		return err
	}))
	return obj, err
}

func (e *CDPExecutor) CallFunctionOn(ctx context.Context, params *runtime.CallFunctionOnParams) (obj *runtime.RemoteObject, exc *runtime.ExceptionDetails, err error) {
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err = params.Do(ctx)
		return err
	}))
	return obj, exc, err
}
