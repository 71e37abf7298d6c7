// internal/jsbind/node.go
package jsbind

import (
	"github.com/dop251/goja"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/dom"
)

// constructNode implements `new Node(handle)`.
func (b *Binding) constructNode(call goja.ConstructorCall) *goja.Object {
	h, err := bridge.AsHandle(call.Argument(0).Export())
	if err != nil {
		b.throwType("Node: %v", err)
	}
	obj := call.This
	if err := obj.SetPrototype(b.nodeProto); err != nil {
		b.throw(err)
	}
	if err := b.attachNode(obj, b.doc.Node(h)); err != nil {
		b.throw(err)
	}
	return obj
}

// initNodePrototype installs the shared Node methods and accessors. Every method
// resolves its proxy from `this`.
func (b *Binding) initNodePrototype() error {
	methods := map[string]func(goja.FunctionCall) goja.Value{
		"getAttribute":     b.nodeGetAttribute,
		"appendChild":      b.nodeAppendChild,
		"insertBefore":     b.nodeInsertBefore,
		"addEventListener": b.nodeAddEventListener,
		"dispatchEvent":    b.nodeDispatchEvent,
	}
	for name, fn := range methods {
		if err := b.nodeProto.Set(name, fn); err != nil {
			return err
		}
	}

	// innerHTML is write-only: reading it yields undefined.
	setter := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		node, _ := b.thisNode(call)
		if err := node.SetInnerHTML(call.Argument(0).String()); err != nil {
			b.throw(err)
		}
		return goja.Undefined()
	})
	if err := b.nodeProto.DefineAccessorProperty("innerHTML", goja.Undefined(), setter, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		return err
	}

	getter := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		node, _ := b.thisNode(call)
		children, err := node.Children()
		if err != nil {
			b.throw(err)
		}
		return b.wrapNodeList(children)
	})
	return b.nodeProto.DefineAccessorProperty("children", getter, goja.Undefined(), goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// wrapNode creates a fresh JS object for n.
func (b *Binding) wrapNode(n *dom.Node) *goja.Object {
	obj := b.vm.NewObject()
	if err := obj.SetPrototype(b.nodeProto); err != nil {
		b.throw(err)
	}
	if err := b.attachNode(obj, n); err != nil {
		b.throw(err)
	}
	return obj
}

func (b *Binding) wrapNodeList(nodes []*dom.Node) goja.Value {
	items := make([]interface{}, len(nodes))
	for i, n := range nodes {
		items[i] = b.wrapNode(n)
	}
	return b.vm.NewArray(items...)
}

func (b *Binding) attachNode(obj *goja.Object, n *dom.Node) error {
	if err := obj.DefineDataProperty(nodeWrapperKey, b.vm.ToValue(n), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		return err
	}
	return obj.DefineDataProperty("handle", b.vm.ToValue(int64(n.Handle())), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// toNode unwraps a JS value created by this binding. ok is false for anything else.
func (b *Binding) toNode(v goja.Value) (node *dom.Node, ok bool) {
	if isNullish(v) {
		return nil, false
	}
	obj, isObj := v.(*goja.Object)
	if !isObj {
		return nil, false
	}
	w := obj.Get(nodeWrapperKey)
	if isNullish(w) {
		return nil, false
	}
	node, ok = w.Export().(*dom.Node)
	return node, ok
}

// thisNode resolves the receiver of a Node method call.
func (b *Binding) thisNode(call goja.FunctionCall) (*dom.Node, *goja.Object) {
	node, ok := b.toNode(call.This)
	if !ok {
		b.throwType("Illegal invocation: receiver is not a Node")
	}
	return node, call.This.(*goja.Object)
}

func (b *Binding) nodeGetAttribute(call goja.FunctionCall) goja.Value {
	node, _ := b.thisNode(call)
	value, ok, err := node.GetAttribute(call.Argument(0).String())
	if err != nil {
		b.throw(err)
	}
	if !ok {
		return goja.Null()
	}
	return b.vm.ToValue(value)
}

func (b *Binding) nodeAppendChild(call goja.FunctionCall) goja.Value {
	node, _ := b.thisNode(call)
	child, ok := b.toNode(call.Argument(0))
	if !ok {
		b.throwType("appendChild: argument 1 is not a Node")
	}
	if _, err := node.AppendChild(child); err != nil {
		b.throw(err)
	}
	return call.Argument(0)
}

func (b *Binding) nodeInsertBefore(call goja.FunctionCall) goja.Value {
	node, _ := b.thisNode(call)
	newNode, ok := b.toNode(call.Argument(0))
	if !ok {
		b.throwType("insertBefore: argument 1 is not a Node")
	}
	var ref *dom.Node
	if refArg := call.Argument(1); !isNullish(refArg) {
		if ref, ok = b.toNode(refArg); !ok {
			b.throwType("insertBefore: argument 2 is not a Node")
		}
	}
	if _, err := node.InsertBefore(newNode, ref); err != nil {
		b.throw(err)
	}
	return call.Argument(0)
}

func (b *Binding) nodeAddEventListener(call goja.FunctionCall) goja.Value {
	node, _ := b.thisNode(call)
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		b.throwType("addEventListener: argument 2 is not callable")
	}
	node.AddEventListener(call.Argument(0).String(), &jsListener{b: b, fn: fn})
	return goja.Undefined()
}

// nodeDispatchEvent runs the listeners on `this`. With an Event it returns
// [defaultAllowed, propagationStopped]; with a bare type string it returns undefined.
func (b *Binding) nodeDispatchEvent(call goja.FunctionCall) goja.Value {
	node, nodeObj := b.thisNode(call)
	arg := call.Argument(0)

	if typ, isString := arg.Export().(string); isString {
		evt := dom.NewEvent(typ)
		pop := b.pushScope(node, nodeObj, evt, b.wrapEvent(evt))
		defer pop()

		if _, err := node.DispatchEvent(evt); err != nil {
			b.throw(err)
		}
		return goja.Undefined()
	}

	evt, evtObj, ok := b.toEvent(arg)
	if !ok {
		b.throwType("dispatchEvent: argument 1 is not an Event")
	}
	pop := b.pushScope(node, nodeObj, evt, evtObj)
	defer pop()

	res, err := node.DispatchEvent(evt)
	if err != nil {
		b.throw(err)
	}
	return b.vm.NewArray(res.DefaultAllowed, res.PropagationStopped)
}
