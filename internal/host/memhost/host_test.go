// internal/host/memhost/host_test.go
package memhost_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/host/memhost"
)

const commentPage = `<!doctype html>
<html><body>
<form action="/add" method="post">
  <p><input name="comment" value="hi"></p>
  <p><label id="msg"></label></p>
  <p><input type="checkbox" name="agree"></p>
  <p><button>Post</button></p>
</form>
<ul id="list">
  <li class="a b">one</li>
  <li>two</li>
</ul>
</body></html>`

// SetupTest loads the comment page into a fresh host.
func SetupTest(t *testing.T, opts ...memhost.Option) *memhost.Host {
	t.Helper()
	h, err := memhost.Load(strings.NewReader(commentPage), opts...)
	require.NoError(t, err)
	return h
}

func mustFirst(t *testing.T, h *memhost.Host, selector string) bridge.Handle {
	t.Helper()
	handle, err := h.First(selector)
	require.NoError(t, err)
	return handle
}

func TestHost_HandlesAreLazyAndStable(t *testing.T) {
	h := SetupTest(t)

	items, err := h.QuerySelectorAll("li")
	require.NoError(t, err)
	assert.Equal(t, []bridge.Handle{0, 1}, items)

	list, err := h.QuerySelectorAll("ul")
	require.NoError(t, err)
	assert.Equal(t, []bridge.Handle{2}, list)

	again, err := h.QuerySelectorAll("#list > li")
	require.NoError(t, err)
	assert.Equal(t, items, again, "the same node must keep its handle")
}

func TestHost_Selectors(t *testing.T) {
	h := SetupTest(t)

	count := func(selector string) int {
		t.Helper()
		handles, err := h.QuerySelectorAll(selector)
		require.NoError(t, err, selector)
		return len(handles)
	}

	assert.Equal(t, 2, count("input"))
	assert.Equal(t, 1, count("input[name=comment]"))
	assert.Equal(t, 1, count(`input[type="checkbox"]`))
	assert.Equal(t, 2, count("form p input"))
	assert.Equal(t, 4, count("form > p"))
	assert.Equal(t, 0, count("body > p"))
	assert.Equal(t, 1, count(".a"))
	assert.Equal(t, 1, count("li.a.b"))
	assert.Equal(t, 1, count("#msg"))
	assert.Equal(t, 0, count("table"))

	_, err := h.QuerySelectorAll("li, p")
	var selErr *memhost.SelectorError
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, "li, p", selErr.Selector)
}

func TestHost_GetAttribute(t *testing.T) {
	h := SetupTest(t)
	input := mustFirst(t, h, "input[name=comment]")

	value, ok, err := h.GetAttribute(input, "value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hi", value)

	_, ok, err = h.GetAttribute(input, "placeholder")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = h.GetAttribute(999, "value")
	var unknown *memhost.UnknownHandleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, bridge.Handle(999), unknown.Handle)
}

func TestHost_SetInnerHTML(t *testing.T) {
	h := SetupTest(t)
	label := mustFirst(t, h, "label")

	require.NoError(t, h.SetInnerHTML(label, "Comment too long!"))
	got, err := h.OuterHTML()
	require.NoError(t, err)
	assert.Contains(t, got, `<label id="msg">Comment too long!</label>`)

	require.NoError(t, h.SetInnerHTML(label, "<b>x</b> and <i>y</i>"))
	children, err := h.Children(label)
	require.NoError(t, err)
	assert.Len(t, children, 2, "only element children are reported")

	require.NoError(t, h.SetInnerHTML(label, ""))
	got, err = h.OuterHTML()
	require.NoError(t, err)
	assert.Contains(t, got, `<label id="msg"></label>`)
}

func TestHost_ChildrenAreElementsInOrder(t *testing.T) {
	h := SetupTest(t)
	list := mustFirst(t, h, "ul")

	children, err := h.Children(list)
	require.NoError(t, err)
	items, err := h.QuerySelectorAll("li")
	require.NoError(t, err)

	if diff := cmp.Diff(items, children); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestHost_AppendAndInsert(t *testing.T) {
	h := SetupTest(t)
	list := mustFirst(t, h, "ul")
	items, err := h.QuerySelectorAll("li")
	require.NoError(t, err)

	first, err := h.CreateElement("LI")
	require.NoError(t, err)
	tag, err := h.Tag(first)
	require.NoError(t, err)
	assert.Equal(t, "li", tag)

	require.NoError(t, h.AppendChild(list, first))
	children, err := h.Children(list)
	require.NoError(t, err)
	assert.Equal(t, []bridge.Handle{items[0], items[1], first}, children)

	// Moving an attached node detaches it from its old position.
	require.NoError(t, h.InsertBefore(list, first, items[0]))
	children, err = h.Children(list)
	require.NoError(t, err)
	assert.Equal(t, []bridge.Handle{first, items[0], items[1]}, children)

	require.NoError(t, h.InsertBefore(list, first, first))

	label := mustFirst(t, h, "label")
	err = h.InsertBefore(list, first, label)
	var hierErr *memhost.HierarchyError
	require.ErrorAs(t, err, &hierErr)
	assert.Equal(t, bridge.OpInsertBefore, hierErr.Op)

	err = h.AppendChild(first, list)
	require.ErrorAs(t, err, &hierErr, "a node cannot become its own descendant")
}

func TestHost_Parent(t *testing.T) {
	h := SetupTest(t)
	list := mustFirst(t, h, "ul")
	item := mustFirst(t, h, "li")

	parent, ok, err := h.Parent(item)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, list, parent)

	root := mustFirst(t, h, "html")
	_, ok, err = h.Parent(root)
	require.NoError(t, err)
	assert.False(t, ok)

	detached, err := h.CreateElement("div")
	require.NoError(t, err)
	_, ok, err = h.Parent(detached)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_FirstNotFound(t *testing.T) {
	h := SetupTest(t)
	_, err := h.First("table")
	var nf *memhost.ElementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "table", nf.Selector)
}

func TestHost_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := memhost.New(memhost.WithLogger(zap.New(core)))

	require.NoError(t, h.Log("Input comment has too much text."))
	entries := logs.FilterMessage("[JS Console]").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "memhost", entries[0].LoggerName)
	assert.Equal(t, "Input comment has too much text.", entries[0].ContextMap()["message"])
}

func TestHost_DefaultActions(t *testing.T) {
	h := SetupTest(t)
	input := mustFirst(t, h, "input[name=comment]")
	checkbox := mustFirst(t, h, "input[type=checkbox]")
	button := mustFirst(t, h, "button")
	form := mustFirst(t, h, "form")

	next, err := h.DefaultAction(input, "keydown", "!")
	require.NoError(t, err)
	assert.Nil(t, next)
	value, _, err := h.GetAttribute(input, "value")
	require.NoError(t, err)
	assert.Equal(t, "hi!", value)

	_, err = h.DefaultAction(checkbox, "click", "")
	require.NoError(t, err)
	_, checked, err := h.GetAttribute(checkbox, "checked")
	require.NoError(t, err)
	assert.True(t, checked)

	next, err = h.DefaultAction(button, "click", "")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, memhost.FollowUp{Type: "submit", Target: form}, *next)

	_, err = h.DefaultAction(form, "submit", "")
	require.NoError(t, err)
	subs := h.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "/add", subs[0].Action)
	assert.Equal(t, "POST", subs[0].Method)
	assert.Equal(t, "comment=hi%21&agree=on", subs[0].Body())

	// A second click unchecks the box.
	_, err = h.DefaultAction(checkbox, "click", "")
	require.NoError(t, err)
	_, checked, err = h.GetAttribute(checkbox, "checked")
	require.NoError(t, err)
	assert.False(t, checked)
}

func TestNew_EmptyDocument(t *testing.T) {
	h := memhost.New()
	body, err := h.QuerySelectorAll("body")
	require.NoError(t, err)
	assert.Len(t, body, 1)

	out, err := h.OuterHTML()
	require.NoError(t, err)
	assert.Equal(t, "<html><head></head><body></body></html>", out)
}
