// internal/host/memhost/page.go
package memhost

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Render writes the current document as HTML.
func (h *Host) Render(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return html.Render(w, h.root)
}

// OuterHTML returns the current document as HTML.
func (h *Host) OuterHTML() (string, error) {
	var buf bytes.Buffer
	if err := h.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

// First returns the handle of the first element matching selector.
func (h *Host) First(selector string) (bridge.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	nodes, err := h.queryAll(selector)
	if err != nil {
		return 0, err
	}
	if len(nodes) == 0 {
		return 0, &ElementNotFoundError{Selector: selector}
	}
	return h.handleFor(nodes[0]), nil
}

// Parent returns the handle of the node's parent element. ok is false for detached
// nodes and for the root element.
func (h *Host) Parent(handle bridge.Handle) (parent bridge.Handle, ok bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.node(handle)
	if err != nil {
		return 0, false, err
	}
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return 0, false, nil
	}
	return h.handleFor(n.Parent), true, nil
}

// Tag returns the node's lower-case tag name, for reports.
func (h *Host) Tag(handle bridge.Handle) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.node(handle)
	if err != nil {
		return "", err
	}
	return n.Data, nil
}
