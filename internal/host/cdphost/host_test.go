// internal/host/cdphost/host_test.go
package cdphost_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/host/cdphost"
)

type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) GetDocument(ctx context.Context) (*cdp.Node, error) {
	args := m.Called(ctx)
	node, _ := args.Get(0).(*cdp.Node)
	return node, args.Error(1)
}

func (m *mockExecutor) QuerySelectorAll(ctx context.Context, nodeID cdp.NodeID, selector string) ([]cdp.NodeID, error) {
	args := m.Called(ctx, nodeID, selector)
	ids, _ := args.Get(0).([]cdp.NodeID)
	return ids, args.Error(1)
}

func (m *mockExecutor) GetAttributes(ctx context.Context, nodeID cdp.NodeID) ([]string, error) {
	args := m.Called(ctx, nodeID)
	attrs, _ := args.Get(0).([]string)
	return attrs, args.Error(1)
}

func (m *mockExecutor) MoveTo(ctx context.Context, nodeID, target, before cdp.NodeID) (cdp.NodeID, error) {
	args := m.Called(ctx, nodeID, target, before)
	return args.Get(0).(cdp.NodeID), args.Error(1)
}

func (m *mockExecutor) Evaluate(ctx context.Context, expression string) (*runtime.RemoteObject, *runtime.ExceptionDetails, error) {
	args := m.Called(ctx, expression)
	obj, _ := args.Get(0).(*runtime.RemoteObject)
	exc, _ := args.Get(1).(*runtime.ExceptionDetails)
	return obj, exc, args.Error(2)
}

func (m *mockExecutor) RequestNode(ctx context.Context, objectID runtime.RemoteObjectID) (cdp.NodeID, error) {
	args := m.Called(ctx, objectID)
	return args.Get(0).(cdp.NodeID), args.Error(1)
}

func (m *mockExecutor) ResolveNode(ctx context.Context, nodeID cdp.NodeID) (*runtime.RemoteObject, error) {
	args := m.Called(ctx, nodeID)
	obj, _ := args.Get(0).(*runtime.RemoteObject)
	return obj, args.Error(1)
}

func (m *mockExecutor) CallFunctionOn(ctx context.Context, params *runtime.CallFunctionOnParams) (*runtime.RemoteObject, *runtime.ExceptionDetails, error) {
	args := m.Called(ctx, params)
	obj, _ := args.Get(0).(*runtime.RemoteObject)
	exc, _ := args.Get(1).(*runtime.ExceptionDetails)
	return obj, exc, args.Error(2)
}

var anyCtx = mock.Anything

// SetupTest builds a host over a fresh mock executor.
func SetupTest(t *testing.T) (*cdphost.Host, *mockExecutor) {
	t.Helper()
	exec := new(mockExecutor)
	t.Cleanup(func() { exec.AssertExpectations(t) })
	return cdphost.New(context.Background(), exec, cdphost.WithLogger(zaptest.NewLogger(t))), exec
}

func TestHost_QuerySelectorAllCachesDocument(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("GetDocument", anyCtx).Return(&cdp.Node{NodeID: 1}, nil).Once()
	exec.On("QuerySelectorAll", anyCtx, cdp.NodeID(1), "input").Return([]cdp.NodeID{12, 15}, nil).Twice()

	for i := 0; i < 2; i++ {
		handles, err := h.QuerySelectorAll("input")
		require.NoError(t, err)
		assert.Equal(t, []bridge.Handle{12, 15}, handles)
	}
}

func TestHost_GetAttribute(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("GetAttributes", anyCtx, cdp.NodeID(12)).Return([]string{"name", "comment", "value", "typed text"}, nil)

	value, ok, err := h.GetAttribute(12, "value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "typed text", value)

	_, ok, err = h.GetAttribute(12, "placeholder")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_CreateElement(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("GetDocument", anyCtx).Return(&cdp.Node{NodeID: 1}, nil).Once()
	exec.On("Evaluate", anyCtx, `document.createElement("li")`).Return(&runtime.RemoteObject{ObjectID: "obj-1"}, nil, nil)
	exec.On("RequestNode", anyCtx, runtime.RemoteObjectID("obj-1")).Return(cdp.NodeID(40), nil)

	handle, err := h.CreateElement("li")
	require.NoError(t, err)
	assert.Equal(t, bridge.Handle(40), handle)
}

func TestHost_CreateElementException(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("GetDocument", anyCtx).Return(&cdp.Node{NodeID: 1}, nil).Once()
	exec.On("Evaluate", anyCtx, `document.createElement("1bad")`).
		Return(nil, &runtime.ExceptionDetails{Text: "InvalidCharacterError"}, nil)

	_, err := h.CreateElement("1bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidCharacterError")
}

func TestHost_SetInnerHTML(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("ResolveNode", anyCtx, cdp.NodeID(7)).Return(&runtime.RemoteObject{ObjectID: "label"}, nil)
	exec.On("CallFunctionOn", anyCtx, mock.MatchedBy(func(p *runtime.CallFunctionOnParams) bool {
		return p.ObjectID == "label" && p.FunctionDeclaration == `function() { this.innerHTML = "Comment too long!"; }`
	})).Return(&runtime.RemoteObject{Type: "undefined"}, nil, nil)

	require.NoError(t, h.SetInnerHTML(7, "Comment too long!"))
}

func TestHost_Children(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("QuerySelectorAll", anyCtx, cdp.NodeID(3), ":scope > *").Return([]cdp.NodeID{4, 5}, nil)

	children, err := h.Children(3)
	require.NoError(t, err)
	assert.Equal(t, []bridge.Handle{4, 5}, children)
}

func TestHost_AppendAndInsert(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("MoveTo", anyCtx, cdp.NodeID(9), cdp.NodeID(3), cdp.NodeID(0)).Return(cdp.NodeID(9), nil).Once()
	exec.On("MoveTo", anyCtx, cdp.NodeID(9), cdp.NodeID(3), cdp.NodeID(4)).Return(cdp.NodeID(9), nil).Once()

	require.NoError(t, h.AppendChild(3, 9))
	require.NoError(t, h.InsertBefore(3, 9, 4))
}

func TestHost_MoveFailure(t *testing.T) {
	h, exec := SetupTest(t)
	cdpErr := errors.New("Could not find node with given id")
	exec.On("MoveTo", anyCtx, cdp.NodeID(9), cdp.NodeID(3), cdp.NodeID(0)).Return(cdp.NodeID(0), cdpErr)

	err := h.AppendChild(3, 9)
	assert.ErrorIs(t, err, cdpErr)
}

func TestHost_Parent(t *testing.T) {
	h, exec := SetupTest(t)
	isParentCall := mock.MatchedBy(func(p *runtime.CallFunctionOnParams) bool {
		return p.FunctionDeclaration == "function() { return this.parentElement; }"
	})

	exec.On("ResolveNode", anyCtx, cdp.NodeID(12)).Return(&runtime.RemoteObject{ObjectID: "input"}, nil)
	exec.On("CallFunctionOn", anyCtx, isParentCall).Return(&runtime.RemoteObject{ObjectID: "p"}, nil, nil).Once()
	exec.On("RequestNode", anyCtx, runtime.RemoteObjectID("p")).Return(cdp.NodeID(11), nil)

	parent, ok, err := h.Parent(12)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bridge.Handle(11), parent)

	// parentElement is null at the root.
	exec.On("ResolveNode", anyCtx, cdp.NodeID(2)).Return(&runtime.RemoteObject{ObjectID: "html"}, nil)
	exec.On("CallFunctionOn", anyCtx, isParentCall).Return(&runtime.RemoteObject{Type: "object", Subtype: "null"}, nil, nil).Once()

	_, ok, err = h.Parent(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_DocumentFailure(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("GetDocument", anyCtx).Return(nil, errors.New("target closed"))

	_, err := h.QuerySelectorAll("p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getDocument failed")
}

func TestHost_OuterHTML(t *testing.T) {
	h, exec := SetupTest(t)
	exec.On("Evaluate", anyCtx, "document.documentElement.outerHTML").
		Return(&runtime.RemoteObject{Type: "string", Value: []byte(`"<html><body><label>Comment too long!</label></body></html>"`)}, nil, nil)

	out, err := h.OuterHTML()
	require.NoError(t, err)
	assert.Equal(t, "<html><body><label>Comment too long!</label></body></html>", out)
}
