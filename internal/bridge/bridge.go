// internal/bridge/bridge.go
package bridge

// Handle names one node owned by the host engine. The facade never interprets it;
// two handles name the same node when they compare equal.
type Handle int64

// Operation names understood by every host collaborator.
const (
	OpLog              = "log"
	OpQuerySelectorAll = "querySelectorAll"
	OpCreateElement    = "create_element"
	OpGetAttribute     = "getAttribute"
	OpInnerHTMLSet     = "innerHTML_set"
	OpGetChildren      = "get_children"
	OpAppendChild      = "append_child"
	OpInsertBefore     = "insert_before"
)

// Operations lists every operation name in the order hosts document them.
var Operations = []string{
	OpLog,
	OpQuerySelectorAll,
	OpCreateElement,
	OpGetAttribute,
	OpInnerHTMLSet,
	OpGetChildren,
	OpAppendChild,
	OpInsertBefore,
}

// Caller is the single synchronous call-and-return primitive between the facade and
// the host. A call blocks until the host answers; there is no retry and no timeout.
type Caller interface {
	Call(name string, args ...any) (any, error)
}

// CallerFunc adapts an ordinary function to the Caller interface.
type CallerFunc func(name string, args ...any) (any, error)

// Call implements Caller.
func (f CallerFunc) Call(name string, args ...any) (any, error) {
	return f(name, args...)
}

// Middleware decorates a Caller.
type Middleware func(Caller) Caller

// Chain applies middleware so that the first one listed is the outermost.
func Chain(c Caller, mws ...Middleware) Caller {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
