// internal/jsbind/binding.go
package jsbind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/dom"
)

// Hidden, non-enumerable properties linking JS objects back to their Go values.
const (
	nodeWrapperKey  = "__go_node_wrapper__"
	eventWrapperKey = "__go_event_wrapper__"
)

// Binding exposes one dom.Document to a goja runtime as the classic page-script
// surface: document, Node, Event and console.
type Binding struct {
	vm     *goja.Runtime
	doc    *dom.Document
	logger *zap.Logger

	nodeProto  *goja.Object
	eventProto *goja.Object

	// scopes holds the JS objects of the dispatches currently running, innermost last,
	// so listeners see the same receiver and event object the dispatch started with.
	scopes []dispatchScope
}

// Install binds doc into vm and sets the page globals.
func Install(vm *goja.Runtime, doc *dom.Document, logger *zap.Logger) (*Binding, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Binding{
		vm:     vm,
		doc:    doc,
		logger: logger.Named("jsbind"),
	}

	var err error
	if b.nodeProto, err = b.defineConstructor("Node", b.constructNode); err != nil {
		return nil, err
	}
	if err := b.initNodePrototype(); err != nil {
		return nil, err
	}
	if b.eventProto, err = b.defineConstructor("Event", b.constructEvent); err != nil {
		return nil, err
	}
	if err := b.initEventPrototype(); err != nil {
		return nil, err
	}
	if err := b.initDocument(); err != nil {
		return nil, err
	}
	if err := b.initConsole(); err != nil {
		return nil, err
	}
	return b, nil
}

// Document returns the bound document.
func (b *Binding) Document() *dom.Document {
	return b.doc
}

// DispatchEvent raises eventType on the node named by h, the way the host does when a
// user acts on the page. It must run on the goroutine that owns the VM.
func (b *Binding) DispatchEvent(h bridge.Handle, eventType string) (res dom.DispatchResult, err error) {
	node := b.doc.Node(h)
	evt := dom.NewEvent(eventType)

	defer func() {
		if r := recover(); r != nil {
			interrupted, ok := r.(*goja.InterruptedError)
			if !ok {
				panic(r)
			}
			b.logger.Debug("Dispatch interrupted",
				zap.Int64("handle", int64(h)),
				zap.String("type", eventType),
			)
			// Flags set before the interrupt still stand.
			res, err = evt.Result(), interrupted
		}
	}()

	pop := b.pushScope(node, b.wrapNode(node), evt, b.wrapEvent(evt))
	defer pop()

	return node.DispatchEvent(evt)
}

// defineConstructor registers a global constructor and returns its prototype object.
func (b *Binding) defineConstructor(name string, ctor func(goja.ConstructorCall) *goja.Object) (*goja.Object, error) {
	fn := b.vm.ToValue(ctor).ToObject(b.vm)
	proto, ok := fn.Get("prototype").(*goja.Object)
	if !ok || proto == nil {
		proto = b.vm.NewObject()
		if err := fn.DefineDataProperty("prototype", proto, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
			return nil, fmt.Errorf("failed to define %s.prototype: %w", name, err)
		}
	}
	if err := b.vm.Set(name, fn); err != nil {
		return nil, fmt.Errorf("failed to set %q global: %w", name, err)
	}
	return proto, nil
}

// initDocument creates the global document object.
func (b *Binding) initDocument() error {
	document := b.vm.NewObject()

	if err := document.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		nodes, err := b.doc.QuerySelectorAll(call.Argument(0).String())
		if err != nil {
			b.throw(err)
		}
		return b.wrapNodeList(nodes)
	}); err != nil {
		return err
	}

	if err := document.Set("createElement", func(call goja.FunctionCall) goja.Value {
		node, err := b.doc.CreateElement(call.Argument(0).String())
		if err != nil {
			b.throw(err)
		}
		return b.wrapNode(node)
	}); err != nil {
		return err
	}

	return b.vm.Set("document", document)
}

// initConsole creates console.log as a pass-through to the host's log operation.
func (b *Binding) initConsole() error {
	console := b.vm.NewObject()
	if err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		if err := b.doc.Log(consoleValue(call.Arguments)); err != nil {
			b.throw(err)
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}
	return b.vm.Set("console", console)
}

// consoleValue reduces console.log arguments to the single value the bridge carries.
// Primitives cross as themselves; anything else, or several arguments, as text.
func consoleValue(args []goja.Value) any {
	if len(args) == 1 {
		switch v := args[0].Export().(type) {
		case nil, string, bool, int64, float64:
			return v
		}
		return args[0].String()
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

// throw raises err inside the running script. JS exceptions keep their original value;
// interrupts stay uncatchable.
func (b *Binding) throw(err error) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		panic(interrupted)
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		panic(exc.Value())
	}
	panic(b.vm.NewGoError(err))
}

func (b *Binding) throwType(format string, args ...any) {
	panic(b.vm.NewTypeError(append([]any{format}, args...)...))
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsNull(v) || goja.IsUndefined(v)
}
