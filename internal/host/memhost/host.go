// internal/host/memhost/host.go
package memhost

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Host is an in-memory page engine: an x/net/html tree whose element nodes are named
// by handles assigned on first use. Handles stay valid for the life of the host, even
// for nodes that have been detached from the tree.
type Host struct {
	mu       sync.Mutex
	root     *html.Node
	byNode   map[*html.Node]bridge.Handle
	byHandle map[bridge.Handle]*html.Node
	logger   *zap.Logger

	submissions []Submission
}

var _ bridge.Host = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used for console output and default actions.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a host holding an empty document (html, head and body).
func New(opts ...Option) *Host {
	h, err := Load(strings.NewReader(""), opts...)
	if err != nil {
		// html.Parse does not fail on an in-memory empty reader.
		panic(err)
	}
	return h
}

// Load parses a page into a new host.
func Load(r io.Reader, opts ...Option) (*Host, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	h := &Host{
		root:     root,
		byNode:   make(map[*html.Node]bridge.Handle),
		byHandle: make(map[bridge.Handle]*html.Node),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("memhost")
	return h, nil
}

// Log writes the script's console output.
func (h *Host) Log(value any) error {
	h.logger.Info("[JS Console]", zap.Any("message", value))
	return nil
}

// QuerySelectorAll returns handles for every element matching selector, in document order.
func (h *Host) QuerySelectorAll(selector string) ([]bridge.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	nodes, err := h.queryAll(selector)
	if err != nil {
		return nil, err
	}
	handles := make([]bridge.Handle, 0, len(nodes))
	for _, n := range nodes {
		handles = append(handles, h.handleFor(n))
	}
	return handles, nil
}

// CreateElement creates a detached element.
func (h *Host) CreateElement(tag string) (bridge.Handle, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return 0, fmt.Errorf("create_element: empty tag name")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return h.handleFor(n), nil
}

// GetAttribute returns the attribute value; ok is false when it is absent.
func (h *Host) GetAttribute(handle bridge.Handle, name string) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.node(handle)
	if err != nil {
		return "", false, err
	}
	value, ok := attr(n, name)
	return value, ok, nil
}

// SetInnerHTML parses markup as a fragment in the context of the node and replaces
// the node's children with the result.
func (h *Host) SetInnerHTML(handle bridge.Handle, markup string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.node(handle)
	if err != nil {
		return err
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("innerHTML_set: failed to parse fragment: %w", err)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// Children returns the element children of the node, in order.
func (h *Host) Children(handle bridge.Handle) ([]bridge.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.node(handle)
	if err != nil {
		return nil, err
	}
	children := []bridge.Handle{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, h.handleFor(c))
		}
	}
	return children, nil
}

// AppendChild moves child to the end of parent's children.
func (h *Host) AppendChild(parent, child bridge.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c, err := h.pair(bridge.OpAppendChild, parent, child)
	if err != nil {
		return err
	}
	detach(c)
	p.AppendChild(c)
	return nil
}

// InsertBefore moves newChild into parent immediately before ref. ref must be a child
// of parent.
func (h *Host) InsertBefore(parent, newChild, ref bridge.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, c, err := h.pair(bridge.OpInsertBefore, parent, newChild)
	if err != nil {
		return err
	}
	r, err := h.node(ref)
	if err != nil {
		return err
	}
	if r.Parent != p {
		return &HierarchyError{Op: bridge.OpInsertBefore, Message: fmt.Sprintf("node %d is not a child of node %d", ref, parent)}
	}
	if c == r {
		return nil
	}
	detach(c)
	p.InsertBefore(c, r)
	return nil
}

// pair resolves a parent/child handle pair and rejects moves that would create a cycle.
func (h *Host) pair(op string, parent, child bridge.Handle) (*html.Node, *html.Node, error) {
	p, err := h.node(parent)
	if err != nil {
		return nil, nil, err
	}
	c, err := h.node(child)
	if err != nil {
		return nil, nil, err
	}
	for a := p; a != nil; a = a.Parent {
		if a == c {
			return nil, nil, &HierarchyError{Op: op, Message: fmt.Sprintf("node %d is an ancestor of node %d", child, parent)}
		}
	}
	return p, c, nil
}

func (h *Host) queryAll(selector string) ([]*html.Node, error) {
	xpath, err := selectorToXPath(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	nodes, err := htmlquery.QueryAll(h.root, xpath)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	elements := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			elements = append(elements, n)
		}
	}
	return elements, nil
}

// handleFor returns the node's handle, issuing the next one on first sight.
func (h *Host) handleFor(n *html.Node) bridge.Handle {
	if handle, ok := h.byNode[n]; ok {
		return handle
	}
	handle := bridge.Handle(len(h.byNode))
	h.byNode[n] = handle
	h.byHandle[handle] = n
	return handle
}

func (h *Host) node(handle bridge.Handle) (*html.Node, error) {
	n, ok := h.byHandle[handle]
	if !ok {
		return nil, &UnknownHandleError{Handle: handle}
	}
	return n, nil
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}
