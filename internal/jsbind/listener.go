// internal/jsbind/listener.go
package jsbind

import (
	"errors"

	"github.com/dop251/goja"

	"github.com/xkilldash9x/domfacade/internal/dom"
)

// jsListener adapts a script callback to dom.Listener. The callback runs with the
// dispatching node as `this` and the event as its only argument.
type jsListener struct {
	b  *Binding
	fn goja.Callable
}

func (l *jsListener) HandleEvent(node *dom.Node, evt *dom.Event) error {
	nodeObj, evtObj := l.b.objectsFor(node, evt)
	_, err := l.fn(nodeObj, evtObj)

	// An interrupt must unwind the whole dispatch, not just this listener.
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		panic(interrupted)
	}
	return err
}

type dispatchScope struct {
	node    *dom.Node
	nodeObj *goja.Object
	evt     *dom.Event
	evtObj  *goja.Object
}

func (b *Binding) pushScope(node *dom.Node, nodeObj *goja.Object, evt *dom.Event, evtObj *goja.Object) (pop func()) {
	b.scopes = append(b.scopes, dispatchScope{node: node, nodeObj: nodeObj, evt: evt, evtObj: evtObj})
	depth := len(b.scopes)
	return func() {
		b.scopes = b.scopes[:depth-1]
	}
}

// objectsFor returns the JS receiver and event for a listener call. Outside a known
// dispatch (a Go caller dispatching on the document directly) fresh wrappers are used.
func (b *Binding) objectsFor(node *dom.Node, evt *dom.Event) (*goja.Object, *goja.Object) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		s := b.scopes[i]
		if s.node == node && s.evt == evt {
			return s.nodeObj, s.evtObj
		}
	}
	return b.wrapNode(node), b.wrapEvent(evt)
}
