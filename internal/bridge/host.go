// internal/bridge/host.go
package bridge

import "fmt"

// Host is the typed contract a host engine implements. Serve turns a Host into the
// name-based Caller the facade talks to.
type Host interface {
	Log(value any) error
	QuerySelectorAll(selector string) ([]Handle, error)
	CreateElement(tag string) (Handle, error)
	// GetAttribute reports ok=false when the attribute is absent.
	GetAttribute(h Handle, name string) (value string, ok bool, err error)
	SetInnerHTML(h Handle, html string) error
	Children(h Handle) ([]Handle, error)
	AppendChild(parent, child Handle) error
	InsertBefore(parent, newChild, ref Handle) error
}

// Serve exposes a Host as a Caller. Arguments are decoded per operation; host errors
// are wrapped in *CallError and nothing is retried.
func Serve(host Host) Caller {
	return CallerFunc(func(name string, args ...any) (any, error) {
		result, err := dispatchOp(host, name, args)
		if err != nil {
			return nil, &CallError{Op: name, Err: err}
		}
		return result, nil
	})
}

func dispatchOp(host Host, name string, args []any) (any, error) {
	switch name {
	case OpLog:
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return nil, host.Log(args[0])

	case OpQuerySelectorAll:
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		selector, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return host.QuerySelectorAll(selector)

	case OpCreateElement:
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		tag, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return host.CreateElement(tag)

	case OpGetAttribute:
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		h, err := handleArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		attr, err := stringArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		value, ok, err := host.GetAttribute(h, attr)
		if err != nil || !ok {
			return nil, err
		}
		return value, nil

	case OpInnerHTMLSet:
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		h, err := handleArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		markup, err := stringArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		return nil, host.SetInnerHTML(h, markup)

	case OpGetChildren:
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		h, err := handleArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return host.Children(h)

	case OpAppendChild:
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		parent, err := handleArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		child, err := handleArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		return nil, host.AppendChild(parent, child)

	case OpInsertBefore:
		if err := arity(name, args, 3); err != nil {
			return nil, err
		}
		parent, err := handleArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		newChild, err := handleArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		ref, err := handleArg(name, args, 2)
		if err != nil {
			return nil, err
		}
		return nil, host.InsertBefore(parent, newChild, ref)

	default:
		return nil, &UnknownOperationError{Op: name}
	}
}

func arity(op string, args []any, want int) error {
	if len(args) != want {
		return &ArgumentError{Op: op, Index: -1, Message: fmt.Sprintf("expected %d arguments, got %d", want, len(args))}
	}
	return nil
}

func stringArg(op string, args []any, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", &ArgumentError{Op: op, Index: i, Message: fmt.Sprintf("expected string, got %T", args[i])}
	}
	return s, nil
}

func handleArg(op string, args []any, i int) (Handle, error) {
	h, err := AsHandle(args[i])
	if err != nil {
		return 0, &ArgumentError{Op: op, Index: i, Message: err.Error()}
	}
	return h, nil
}
