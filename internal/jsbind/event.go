// internal/jsbind/event.go
package jsbind

import (
	"github.com/dop251/goja"

	"github.com/xkilldash9x/domfacade/internal/dom"
)

// constructEvent implements `new Event(type)`.
func (b *Binding) constructEvent(call goja.ConstructorCall) *goja.Object {
	if len(call.Arguments) == 0 {
		b.throwType("Event: 1 argument required, but only 0 present")
	}
	obj := call.This
	if err := obj.SetPrototype(b.eventProto); err != nil {
		b.throw(err)
	}
	if err := b.attachEvent(obj, dom.NewEvent(call.Argument(0).String())); err != nil {
		b.throw(err)
	}
	return obj
}

func (b *Binding) initEventPrototype() error {
	if err := b.eventProto.Set("preventDefault", func(call goja.FunctionCall) goja.Value {
		b.thisEvent(call).PreventDefault()
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := b.eventProto.Set("stopPropagation", func(call goja.FunctionCall) goja.Value {
		b.thisEvent(call).StopPropagation()
		return goja.Undefined()
	}); err != nil {
		return err
	}

	defaultPrevented := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.vm.ToValue(!b.thisEvent(call).DefaultAllowed())
	})
	return b.eventProto.DefineAccessorProperty("defaultPrevented", defaultPrevented, goja.Undefined(), goja.FLAG_TRUE, goja.FLAG_TRUE)
}

func (b *Binding) wrapEvent(evt *dom.Event) *goja.Object {
	obj := b.vm.NewObject()
	if err := obj.SetPrototype(b.eventProto); err != nil {
		b.throw(err)
	}
	if err := b.attachEvent(obj, evt); err != nil {
		b.throw(err)
	}
	return obj
}

func (b *Binding) attachEvent(obj *goja.Object, evt *dom.Event) error {
	if err := obj.DefineDataProperty(eventWrapperKey, b.vm.ToValue(evt), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		return err
	}
	return obj.DefineDataProperty("type", b.vm.ToValue(evt.Type()), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func (b *Binding) toEvent(v goja.Value) (*dom.Event, *goja.Object, bool) {
	if isNullish(v) {
		return nil, nil, false
	}
	obj, isObj := v.(*goja.Object)
	if !isObj {
		return nil, nil, false
	}
	w := obj.Get(eventWrapperKey)
	if isNullish(w) {
		return nil, nil, false
	}
	evt, ok := w.Export().(*dom.Event)
	return evt, obj, ok
}

func (b *Binding) thisEvent(call goja.FunctionCall) *dom.Event {
	evt, _, ok := b.toEvent(call.This)
	if !ok {
		b.throwType("Illegal invocation: receiver is not an Event")
	}
	return evt
}
