// internal/jsbind/binding_test.go
package jsbind_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/bridge/bridgetest"
	"github.com/xkilldash9x/domfacade/internal/dom"
	"github.com/xkilldash9x/domfacade/internal/jsbind"
)

// SetupTest binds a fresh document over rec into a new VM.
func SetupTest(t *testing.T, rec *bridgetest.Recorder) (*goja.Runtime, *jsbind.Binding) {
	t.Helper()
	vm := goja.New()
	b, err := jsbind.Install(vm, dom.NewDocument(rec), zaptest.NewLogger(t))
	require.NoError(t, err)
	return vm, b
}

func run(t *testing.T, vm *goja.Runtime, code string) goja.Value {
	t.Helper()
	v, err := vm.RunString(code)
	require.NoError(t, err)
	return v
}

// commentPage answers like a page with an <input name=comment> (handle 2) holding
// value and a <label> (handle 3).
func commentPage(value string) *bridgetest.Recorder {
	return bridgetest.NewRecorder().
		RespondFunc(bridge.OpQuerySelectorAll, func(args []any) (any, error) {
			switch args[0] {
			case "input":
				return []bridge.Handle{2}, nil
			case "label":
				return []bridge.Handle{3}, nil
			}
			return []bridge.Handle{}, nil
		}).
		RespondFunc(bridge.OpGetAttribute, func(args []any) (any, error) {
			if args[1] == "value" {
				return value, nil
			}
			return nil, nil
		})
}

const lengthCheckScript = `
var input = document.querySelectorAll("input")[0];
var label = document.querySelectorAll("label")[0];
input.addEventListener("keydown", function(e) {
	if (this.getAttribute("value").length > 100) {
		label.innerHTML = "Comment too long!";
		e.preventDefault();
	}
});
`

func TestBinding_LengthCheckBlocksKeydown(t *testing.T) {
	rec := commentPage(strings.Repeat("x", 150))
	vm, b := SetupTest(t, rec)
	run(t, vm, lengthCheckScript)

	res, err := b.DispatchEvent(2, "keydown")
	require.NoError(t, err)
	assert.Equal(t, dom.DispatchResult{DefaultAllowed: false, PropagationStopped: false}, res)
	assert.Equal(t, bridgetest.Call{Name: bridge.OpInnerHTMLSet, Args: []any{bridge.Handle(3), "Comment too long!"}}, rec.Last())
}

func TestBinding_LengthCheckAllowsShortComment(t *testing.T) {
	rec := commentPage("short")
	vm, b := SetupTest(t, rec)
	run(t, vm, lengthCheckScript)
	rec.Reset()

	res, err := b.DispatchEvent(2, "keydown")
	require.NoError(t, err)
	assert.True(t, res.DefaultAllowed)
	assert.Equal(t, 1, rec.Count(), "only the attribute read")
}

func TestBinding_QuerySelectorAllAndHandles(t *testing.T) {
	rec := bridgetest.NewRecorder().Respond(bridge.OpQuerySelectorAll, []bridge.Handle{4, 1})
	vm, _ := SetupTest(t, rec)

	got := run(t, vm, `document.querySelectorAll("p").map(function(n) { return n.handle; })`).Export()
	assert.Equal(t, []interface{}{int64(4), int64(1)}, got)

	// handle is read-only.
	got = run(t, vm, `var n = new Node(7); n.handle = 9; n.handle`).Export()
	assert.Equal(t, int64(7), got)
}

func TestBinding_GetAttributeMissingIsNull(t *testing.T) {
	vm, _ := SetupTest(t, bridgetest.NewRecorder())
	assert.True(t, goja.IsNull(run(t, vm, `new Node(1).getAttribute("nope")`)))
}

func TestBinding_InnerHTMLIsWriteOnly(t *testing.T) {
	rec := bridgetest.NewRecorder()
	vm, _ := SetupTest(t, rec)

	assert.True(t, goja.IsUndefined(run(t, vm, `new Node(1).innerHTML`)))
	assert.Zero(t, rec.Count(), "reading innerHTML must not reach the host")

	run(t, vm, `new Node(1).innerHTML = 42`)
	assert.Equal(t, []bridgetest.Call{{Name: bridge.OpInnerHTMLSet, Args: []any{bridge.Handle(1), "42"}}}, rec.Calls())
}

func TestBinding_Children(t *testing.T) {
	rec := bridgetest.NewRecorder().Respond(bridge.OpGetChildren, []bridge.Handle{5, 6})
	vm, _ := SetupTest(t, rec)

	got := run(t, vm, `var c = new Node(1).children; [c.length, c[0].handle, c[1].handle, c[0] instanceof Node]`).Export()
	assert.Equal(t, []interface{}{int64(2), int64(5), int64(6), true}, got)
}

func TestBinding_AppendChildAndInsertBefore(t *testing.T) {
	rec := bridgetest.NewRecorder().Respond(bridge.OpCreateElement, bridge.Handle(10))
	vm, _ := SetupTest(t, rec)

	same := run(t, vm, `
		var parent = new Node(1);
		var li = document.createElement("li");
		parent.appendChild(li) === li && parent.insertBefore(li, null) === li && parent.insertBefore(li, undefined) === li
	`).Export()
	assert.Equal(t, true, same)

	calls := rec.Calls()
	require.Len(t, calls, 4)
	appendCall := bridgetest.Call{Name: bridge.OpAppendChild, Args: []any{bridge.Handle(1), bridge.Handle(10)}}
	assert.Equal(t, []bridgetest.Call{appendCall, appendCall, appendCall}, calls[1:])

	rec.Reset()
	run(t, vm, `parent.insertBefore(li, new Node(3))`)
	assert.Equal(t, []bridgetest.Call{{Name: bridge.OpInsertBefore, Args: []any{bridge.Handle(1), bridge.Handle(10), bridge.Handle(3)}}}, rec.Calls())
}

func TestBinding_DispatchEventFromScript(t *testing.T) {
	vm, _ := SetupTest(t, bridgetest.NewRecorder())

	got := run(t, vm, `
		var n = new Node(2);
		var order = [];
		n.addEventListener("submit", function(e) { order.push("a"); e.stopPropagation(); });
		n.addEventListener("submit", function(e) { order.push("b"); });
		var r = n.dispatchEvent(new Event("submit"));
		[r[0], r[1], order.join(",")]
	`).Export()
	assert.Equal(t, []interface{}{true, true, "a,b"}, got)

	got = run(t, vm, `
		var ev = new Event("submit");
		ev.preventDefault();
		var r2 = n.dispatchEvent(ev);
		[r2[0], ev.defaultPrevented, ev.type]
	`).Export()
	assert.Equal(t, []interface{}{false, true, "submit"}, got)

	// Bare type string: listeners run, result is not observable.
	got = run(t, vm, `order = []; var r3 = n.dispatchEvent("submit"); [r3 === undefined, order.join(",")]`).Export()
	assert.Equal(t, []interface{}{true, "a,b"}, got)
}

func TestBinding_ListenerReceiverAndEventIdentity(t *testing.T) {
	vm, _ := SetupTest(t, bridgetest.NewRecorder())

	got := run(t, vm, `
		var n = new Node(2);
		var evt = new Event("click");
		var seen = [];
		n.addEventListener("click", function(e) { seen.push(this === n, e === evt, this.handle); });
		n.dispatchEvent(evt);
		seen
	`).Export()
	assert.Equal(t, []interface{}{true, true, int64(2)}, got)
}

func TestBinding_ListenerBoundByHandleNotObject(t *testing.T) {
	vm, b := SetupTest(t, bridgetest.NewRecorder())
	run(t, vm, `
		var hits = 0;
		new Node(4).addEventListener("click", function() { hits++; });
		new Node(4).dispatchEvent(new Event("click"));
	`)
	_, err := b.DispatchEvent(4, "click")
	require.NoError(t, err)
	assert.Equal(t, int64(2), run(t, vm, `hits`).Export())
}

func TestBinding_ListenerExceptionReachesScript(t *testing.T) {
	vm, _ := SetupTest(t, bridgetest.NewRecorder())

	got := run(t, vm, `
		var n = new Node(1);
		var later = false;
		n.addEventListener("click", function() { throw new Error("boom"); });
		n.addEventListener("click", function() { later = true; });
		var caught;
		try { n.dispatchEvent(new Event("click")); } catch (e) { caught = e.message; }
		[caught, later]
	`).Export()
	assert.Equal(t, []interface{}{"boom", false}, got)
}

func TestBinding_ListenerExceptionFromHostDispatch(t *testing.T) {
	vm, b := SetupTest(t, bridgetest.NewRecorder())
	run(t, vm, `new Node(1).addEventListener("click", function() { throw new Error("boom"); });`)

	_, err := b.DispatchEvent(1, "click")
	require.Error(t, err)

	var lerr *dom.ListenerError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 0, lerr.Index)

	var exc *goja.Exception
	require.ErrorAs(t, err, &exc)
	assert.Contains(t, exc.Error(), "boom")
}

func TestBinding_BridgeFailureIsCatchable(t *testing.T) {
	rec := bridgetest.NewRecorder().Fail(bridge.OpGetAttribute, errors.New("stale handle"))
	vm, _ := SetupTest(t, rec)

	got := run(t, vm, `var msg; try { new Node(1).getAttribute("x"); } catch (e) { msg = e.message; } msg`).String()
	assert.Contains(t, got, "stale handle")
}

func TestBinding_ConsoleLog(t *testing.T) {
	rec := bridgetest.NewRecorder()
	vm, _ := SetupTest(t, rec)

	run(t, vm, `console.log("Input comment has too much text."); console.log(3); console.log("a", 1)`)
	assert.Equal(t, []bridgetest.Call{
		{Name: bridge.OpLog, Args: []any{"Input comment has too much text."}},
		{Name: bridge.OpLog, Args: []any{int64(3)}},
		{Name: bridge.OpLog, Args: []any{"a 1"}},
	}, rec.Calls())
}

func TestBinding_TypeErrors(t *testing.T) {
	vm, _ := SetupTest(t, bridgetest.NewRecorder())

	cases := map[string]string{
		"node without handle":     `new Node()`,
		"event without type":      `new Event()`,
		"append non-node":         `new Node(1).appendChild({})`,
		"insert with bad ref":     `new Node(1).insertBefore(new Node(2), 5)`,
		"non-callable listener":   `new Node(1).addEventListener("click", 5)`,
		"dispatch non-event":      `new Node(1).dispatchEvent({type: "click"})`,
		"detached method":         `var f = new Node(1).getAttribute; f("x")`,
		"detached preventDefault": `var p = new Event("x").preventDefault; p()`,
	}
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			got := run(t, vm, `(function() { try { `+code+`; return "no error"; } catch (e) { return e instanceof TypeError; } })()`).Export()
			assert.Equal(t, true, got)
		})
	}
}
