// internal/jsexec/runtime.go
package jsexec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/dom"
	"github.com/xkilldash9x/domfacade/internal/jsbind"
)

// DefaultTimeout is the fallback execution timeout if the context has no deadline.
const DefaultTimeout = 30 * time.Second

// Runtime owns a goja VM bound to one document. Script execution and host-initiated
// dispatch share the VM and are serialized.
type Runtime struct {
	vm        *goja.Runtime
	binding   *jsbind.Binding
	doc       *dom.Document
	logger    *zap.Logger
	timeout   time.Duration
	execMutex sync.Mutex
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithTimeout sets the deadline applied when the caller's context has none.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRuntime creates a VM and installs the page globals for doc.
func NewRuntime(logger *zap.Logger, doc *dom.Document, opts ...Option) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("jsexec")

	vm := goja.New()
	binding, err := jsbind.Install(vm, doc, log)
	if err != nil {
		return nil, fmt.Errorf("failed to install DOM bindings: %w", err)
	}

	r := &Runtime{
		vm:      vm,
		binding: binding,
		doc:     doc,
		logger:  log,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Document returns the document the scripts run against.
func (r *Runtime) Document() *dom.Document {
	return r.doc
}

// ExecuteScript compiles and runs a page script. name is used in stack traces.
func (r *Runtime) ExecuteScript(ctx context.Context, name, code string) error {
	prog, err := goja.Compile(name, code, false)
	if err != nil {
		return fmt.Errorf("failed to compile script %q: %w", name, err)
	}

	r.execMutex.Lock()
	defer r.execMutex.Unlock()

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	stop := r.interruptOnDone(ctx)
	defer stop()

	start := time.Now()
	if _, err := r.vm.RunProgram(prog); err != nil {
		return r.translate(ctx, err)
	}
	r.logger.Debug("Script executed", zap.String("script", name), zap.Duration("took", time.Since(start)))
	return nil
}

// Evaluate runs a snippet and exports its completion value to Go.
func (r *Runtime) Evaluate(ctx context.Context, code string) (interface{}, error) {
	r.execMutex.Lock()
	defer r.execMutex.Unlock()

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	stop := r.interruptOnDone(ctx)
	defer stop()

	result, err := r.vm.RunString(code)
	if err != nil {
		return nil, r.translate(ctx, err)
	}
	return result.Export(), nil
}

// DispatchEvent raises eventType on the node named by h and runs its listeners.
// It waits for any running script to finish first.
func (r *Runtime) DispatchEvent(ctx context.Context, h bridge.Handle, eventType string) (dom.DispatchResult, error) {
	r.execMutex.Lock()
	defer r.execMutex.Unlock()

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	stop := r.interruptOnDone(ctx)
	defer stop()

	res, err := r.binding.DispatchEvent(h, eventType)
	if err != nil {
		return res, r.translate(ctx, err)
	}
	return res, nil
}

// Reload drops every registered listener so page scripts can be run again from a
// clean slate. The VM's globals are kept.
func (r *Runtime) Reload() {
	r.execMutex.Lock()
	defer r.execMutex.Unlock()
	r.doc.Registry().Clear()
	r.logger.Debug("Listener registry cleared")
}

func (r *Runtime) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// interruptOnDone interrupts the VM when ctx ends. The returned stop func waits for
// the watcher to exit before clearing the interrupt, so a late interrupt cannot leak
// into the next run.
func (r *Runtime) interruptOnDone(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	return func() {
		close(done)
		wg.Wait()
		r.vm.ClearInterrupt()
	}
}

func (r *Runtime) translate(ctx context.Context, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("javascript execution interrupted by context: %w", ctx.Err())
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return fmt.Errorf("javascript exception: %w", err)
	}
	return fmt.Errorf("javascript error: %w", err)
}
