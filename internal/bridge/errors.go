// internal/bridge/errors.go
package bridge

import "fmt"

// Typed errors let callers classify bridge failures with errors.As instead of
// matching message text.

// CallError wraps a failure reported by the host for one operation.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("bridge call %q failed: %v", e.Op, e.Err)
}

// Unwrap returns the host's error.
func (e *CallError) Unwrap() error {
	return e.Err
}

// UnknownOperationError is returned when a host is asked for an operation it does not serve.
type UnknownOperationError struct {
	Op string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown bridge operation %q", e.Op)
}

// ArgumentError reports an argument list that does not fit the operation.
type ArgumentError struct {
	Op      string
	Index   int
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: argument %d: %s", e.Op, e.Index, e.Message)
}

// ResultError reports a host result whose shape does not match the operation.
type ResultError struct {
	Op     string
	Result any
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: unexpected result of type %T", e.Op, e.Result)
}
