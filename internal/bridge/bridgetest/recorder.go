// internal/bridge/bridgetest/recorder.go
package bridgetest

import (
	"sync"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Call is one recorded bridge invocation.
type Call struct {
	Name string
	Args []any
}

// Recorder is a scriptable bridge.Caller for tests. Responses are looked up by
// operation name; unscripted operations return (nil, nil).
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]func(args []any) (any, error)
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{responses: make(map[string]func(args []any) (any, error))}
}

// Respond makes every call to op return result.
func (r *Recorder) Respond(op string, result any) *Recorder {
	return r.RespondFunc(op, func([]any) (any, error) { return result, nil })
}

// Fail makes every call to op return err.
func (r *Recorder) Fail(op string, err error) *Recorder {
	return r.RespondFunc(op, func([]any) (any, error) { return nil, err })
}

// RespondFunc computes the response for op from the call's arguments.
func (r *Recorder) RespondFunc(op string, fn func(args []any) (any, error)) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[op] = fn
	return r
}

// Call implements bridge.Caller.
func (r *Recorder) Call(name string, args ...any) (any, error) {
	r.mu.Lock()
	argsCopy := append([]any(nil), args...)
	r.calls = append(r.calls, Call{Name: name, Args: argsCopy})
	fn := r.responses[name]
	r.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(argsCopy)
}

// Calls returns a copy of every call recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls were recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Reset forgets recorded calls but keeps scripted responses.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Last returns the most recent call. It panics when nothing was recorded.
func (r *Recorder) Last() Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		panic("bridgetest: no calls recorded")
	}
	return r.calls[len(r.calls)-1]
}

var _ bridge.Caller = (*Recorder)(nil)
