// internal/host/memhost/errors.go
package memhost

import (
	"fmt"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// UnknownHandleError is returned when a handle was never issued by this host.
type UnknownHandleError struct {
	Handle bridge.Handle
}

// Error implements the error interface by formatting the message on the fly.
func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("unknown node handle %d", e.Handle)
}

// HierarchyError reports a tree mutation that would leave the tree inconsistent, such
// as inserting before a node that is not a child, or making a node its own ancestor.
type HierarchyError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *HierarchyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ElementNotFoundError is a specific, typed error for when a selector does not match any element.
type ElementNotFoundError struct {
	Selector string
}

// Error implements the error interface.
func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found matching selector '%s'", e.Selector)
}

// SelectorError reports a selector the host cannot evaluate.
type SelectorError struct {
	Selector string
	Err      error
}

// Error implements the error interface.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector '%s': %v", e.Selector, e.Err)
}

// Unwrap provides the underlying parse or query error.
func (e *SelectorError) Unwrap() error {
	return e.Err
}
