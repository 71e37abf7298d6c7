// internal/dom/node.go
package dom

import (
	"fmt"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Node is the local stand-in for one remote node. It holds only a handle and the
// document it came from; the tree itself lives on the host. Any number of Node values
// may share a handle.
type Node struct {
	handle bridge.Handle
	doc    *Document
}

// Handle returns the node's opaque handle.
func (n *Node) Handle() bridge.Handle {
	return n.handle
}

// Document returns the document this proxy belongs to.
func (n *Node) Document() *Document {
	return n.doc
}

// Equal reports whether both proxies name the same remote node.
func (n *Node) Equal(other *Node) bool {
	return other != nil && n.handle == other.handle
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%d)", n.handle)
}

// GetAttribute returns the attribute value verbatim. ok is false when the host
// reports null.
func (n *Node) GetAttribute(name string) (value string, ok bool, err error) {
	res, err := n.doc.caller.Call(bridge.OpGetAttribute, n.handle, name)
	if err != nil {
		return "", false, err
	}
	value, ok, err = bridge.AsOptionalString(res)
	if err != nil {
		return "", false, &bridge.ResultError{Op: bridge.OpGetAttribute, Result: res}
	}
	return value, ok, nil
}

// SetInnerHTML replaces the node's content on the host.
func (n *Node) SetInnerHTML(markup string) error {
	_, err := n.doc.caller.Call(bridge.OpInnerHTMLSet, n.handle, markup)
	return err
}

// Children returns fresh proxies for the node's element children in document order.
func (n *Node) Children() ([]*Node, error) {
	res, err := n.doc.caller.Call(bridge.OpGetChildren, n.handle)
	if err != nil {
		return nil, err
	}
	return n.doc.wrapAll(bridge.OpGetChildren, res)
}

// AppendChild moves child to the end of this node's children and returns child.
func (n *Node) AppendChild(child *Node) (*Node, error) {
	if child == nil {
		return nil, &bridge.ArgumentError{Op: bridge.OpAppendChild, Index: 1, Message: "child is nil"}
	}
	if _, err := n.doc.caller.Call(bridge.OpAppendChild, n.handle, child.handle); err != nil {
		return nil, err
	}
	return child, nil
}

// InsertBefore inserts newNode before ref and returns newNode. A nil ref means "no
// reference" and issues exactly the call AppendChild would.
func (n *Node) InsertBefore(newNode, ref *Node) (*Node, error) {
	if newNode == nil {
		return nil, &bridge.ArgumentError{Op: bridge.OpInsertBefore, Index: 1, Message: "new node is nil"}
	}
	if ref == nil {
		return n.AppendChild(newNode)
	}
	if _, err := n.doc.caller.Call(bridge.OpInsertBefore, n.handle, newNode.handle, ref.handle); err != nil {
		return nil, err
	}
	return newNode, nil
}

// AddEventListener registers l for eventType on this node's handle. No bridge call.
func (n *Node) AddEventListener(eventType string, l Listener) {
	n.doc.registry.Add(n.handle, eventType, l)
}

// DispatchEvent runs this node's listeners for evt and reports the resulting flags.
// No bridge call.
func (n *Node) DispatchEvent(evt *Event) (DispatchResult, error) {
	return n.doc.dispatcher.Dispatch(n, evt)
}

// DispatchType runs the listeners for a bare event type with a throwaway event.
//
// Deprecated: flags cannot be observed; use DispatchEvent.
func (n *Node) DispatchType(eventType string) error {
	_, err := n.doc.dispatcher.Dispatch(n, NewEvent(eventType))
	return err
}
