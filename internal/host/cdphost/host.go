// internal/host/cdphost/host.go
package cdphost

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// DefaultTimeout bounds each CDP command when the host is not configured otherwise.
const DefaultTimeout = 10 * time.Second

// ErrNoObject is returned when the browser hands back a result without a remote object.
var ErrNoObject = errors.New("cdp: result carries no remote object")

// Host serves the bridge operations from a live browser page. Handles are CDP node ids,
// valid for as long as the DOM domain keeps the document.
type Host struct {
	ctx     context.Context
	exec    Executor
	logger  *zap.Logger
	timeout time.Duration

	mu   sync.Mutex
	root cdp.NodeID
}

var _ bridge.Host = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTimeout sets the per-command deadline.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a host issuing commands through exec. ctx is the browser tab's context
// and bounds the life of every command.
func New(ctx context.Context, exec Executor, opts ...Option) *Host {
	h := &Host{
		ctx:     ctx,
		exec:    exec,
		logger:  zap.NewNop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("cdphost")
	return h
}

// Log writes the script's console output.
func (h *Host) Log(value any) error {
	h.logger.Info("[JS Console]", zap.Any("message", value))
	return nil
}

// QuerySelectorAll runs selector against the whole document.
func (h *Host) QuerySelectorAll(selector string) ([]bridge.Handle, error) {
	ctx, cancel := h.opContext()
	defer cancel()

	root, err := h.document(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := h.exec.QuerySelectorAll(ctx, root, selector)
	if err != nil {
		return nil, fmt.Errorf("cdp: querySelectorAll %q failed: %w", selector, err)
	}
	return toHandles(ids), nil
}

// CreateElement creates a detached element in the page.
func (h *Host) CreateElement(tag string) (bridge.Handle, error) {
	ctx, cancel := h.opContext()
	defer cancel()

	if _, err := h.document(ctx); err != nil {
		return 0, err
	}
	obj, exc, err := h.exec.Evaluate(ctx, "document.createElement("+jsString(tag)+")")
	if err := remoteErr("create_element", exc, err); err != nil {
		return 0, err
	}
	if obj == nil || obj.ObjectID == "" {
		return 0, ErrNoObject
	}
	id, err := h.exec.RequestNode(ctx, obj.ObjectID)
	if err != nil {
		return 0, fmt.Errorf("cdp: failed to resolve created element: %w", err)
	}
	return bridge.Handle(id), nil
}

// GetAttribute reads one attribute; ok is false when it is absent.
func (h *Host) GetAttribute(handle bridge.Handle, name string) (string, bool, error) {
	ctx, cancel := h.opContext()
	defer cancel()

	attrs, err := h.exec.GetAttributes(ctx, cdp.NodeID(handle))
	if err != nil {
		return "", false, fmt.Errorf("cdp: getAttributes on node %d failed: %w", handle, err)
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		if strings.EqualFold(attrs[i], name) {
			return attrs[i+1], true, nil
		}
	}
	return "", false, nil
}

// SetInnerHTML assigns innerHTML in the page.
func (h *Host) SetInnerHTML(handle bridge.Handle, markup string) error {
	_, err := h.callOn(handle, "function() { this.innerHTML = "+jsString(markup)+"; }")
	return err
}

// Children returns the node's element children.
func (h *Host) Children(handle bridge.Handle) ([]bridge.Handle, error) {
	ctx, cancel := h.opContext()
	defer cancel()

	ids, err := h.exec.QuerySelectorAll(ctx, cdp.NodeID(handle), ":scope > *")
	if err != nil {
		return nil, fmt.Errorf("cdp: listing children of node %d failed: %w", handle, err)
	}
	return toHandles(ids), nil
}

// AppendChild moves child to the end of parent.
func (h *Host) AppendChild(parent, child bridge.Handle) error {
	return h.move(bridge.OpAppendChild, child, parent, 0)
}

// InsertBefore moves newChild into parent before ref.
func (h *Host) InsertBefore(parent, newChild, ref bridge.Handle) error {
	return h.move(bridge.OpInsertBefore, newChild, parent, ref)
}

// Parent returns the node's parent element; ok is false at the root or when detached.
func (h *Host) Parent(handle bridge.Handle) (bridge.Handle, bool, error) {
	ctx, cancel := h.opContext()
	defer cancel()

	obj, err := h.callOnCtx(ctx, handle, "function() { return this.parentElement; }")
	if err != nil {
		return 0, false, err
	}
	if obj == nil || obj.ObjectID == "" {
		return 0, false, nil
	}
	id, err := h.exec.RequestNode(ctx, obj.ObjectID)
	if err != nil {
		return 0, false, fmt.Errorf("cdp: failed to resolve parent of node %d: %w", handle, err)
	}
	return bridge.Handle(id), true, nil
}

// OuterHTML serializes the live document.
func (h *Host) OuterHTML() (string, error) {
	ctx, cancel := h.opContext()
	defer cancel()

	obj, exc, err := h.exec.Evaluate(ctx, "document.documentElement.outerHTML")
	if err := remoteErr("outerHTML", exc, err); err != nil {
		return "", err
	}
	if obj == nil || len(obj.Value) == 0 {
		return "", ErrNoObject
	}
	var out string
	if err := json.Unmarshal([]byte(obj.Value), &out); err != nil {
		return "", fmt.Errorf("cdp: outerHTML returned a non-string value: %w", err)
	}
	return out, nil
}

func (h *Host) move(op string, node, target, before bridge.Handle) error {
	ctx, cancel := h.opContext()
	defer cancel()

	moved, err := h.exec.MoveTo(ctx, cdp.NodeID(node), cdp.NodeID(target), cdp.NodeID(before))
	if err != nil {
		return fmt.Errorf("cdp: %s failed: %w", op, err)
	}
	if moved != 0 && moved != cdp.NodeID(node) {
		h.logger.Warn("Node id changed by move; the old handle is stale",
			zap.Int64("old", int64(node)),
			zap.Int64("new", int64(moved)),
		)
	}
	return nil
}

func (h *Host) callOn(handle bridge.Handle, decl string) (*runtime.RemoteObject, error) {
	ctx, cancel := h.opContext()
	defer cancel()
	return h.callOnCtx(ctx, handle, decl)
}

func (h *Host) callOnCtx(ctx context.Context, handle bridge.Handle, decl string) (*runtime.RemoteObject, error) {
	target, err := h.exec.ResolveNode(ctx, cdp.NodeID(handle))
	if err != nil {
		return nil, fmt.Errorf("cdp: failed to resolve node %d: %w", handle, err)
	}
	if target == nil || target.ObjectID == "" {
		return nil, ErrNoObject
	}
	obj, exc, err := h.exec.CallFunctionOn(ctx, runtime.CallFunctionOn(decl).WithObjectID(target.ObjectID))
	if err := remoteErr("callFunctionOn", exc, err); err != nil {
		return nil, err
	}
	return obj, nil
}

// document returns the cached root node id, fetching it on first use.
func (h *Host) document(ctx context.Context) (cdp.NodeID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.root != 0 {
		return h.root, nil
	}
	root, err := h.exec.GetDocument(ctx)
	if err != nil {
		return 0, fmt.Errorf("cdp: getDocument failed: %w", err)
	}
	h.root = root.NodeID
	return h.root, nil
}

func (h *Host) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, h.timeout)
}

func remoteErr(op string, exc *runtime.ExceptionDetails, err error) error {
	if err != nil {
		return fmt.Errorf("cdp: %s failed: %w", op, err)
	}
	if exc != nil {
		return fmt.Errorf("cdp: %s threw: %s", op, exc.Text)
	}
	return nil
}

func toHandles(ids []cdp.NodeID) []bridge.Handle {
	out := make([]bridge.Handle, len(ids))
	for i, id := range ids {
		out[i] = bridge.Handle(id)
	}
	return out
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshalling a string cannot fail.
		panic(err)
	}
	return string(b)
}
