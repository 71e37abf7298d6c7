// internal/session/event.go
package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/host/propagate"
)

// maxFollowUps bounds the chain of events default actions may raise from one line.
const maxFollowUps = 8

// EventSpec is one parsed event line: "<type> <selector> [key]".
type EventSpec struct {
	Type     string
	Selector string
	// Key is appended to the target's value by an unprevented keydown.
	Key string
}

func (e EventSpec) String() string {
	if e.Key == "" {
		return e.Type + " " + e.Selector
	}
	return e.Type + " " + e.Selector + " " + e.Key
}

// ParseEvent parses an event line. Selectors may not contain spaces; use the child
// combinator without spaces ("form>input") to reach nested elements.
func ParseEvent(line string) (EventSpec, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 2:
		return EventSpec{Type: fields[0], Selector: fields[1]}, nil
	case 3:
		return EventSpec{Type: fields[0], Selector: fields[1], Key: fields[2]}, nil
	}
	return EventSpec{}, fmt.Errorf("event line %q must be '<type> <selector> [key]'", line)
}

// IsEventLine reports whether a line carries an event, as opposed to being blank or a
// '#' comment.
func IsEventLine(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && !strings.HasPrefix(line, "#")
}

// TargetError reports an event whose selector matched nothing.
type TargetError struct {
	Selector string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("no element matches %q", e.Selector)
}

// Dispatched records one event that went through dispatch.
type Dispatched struct {
	Type   string
	Target bridge.Handle
	// Tag is the target's tag name; empty when the host cannot report it.
	Tag       string
	Prevented bool
	Path      []bridge.Handle
}

// Fire dispatches the event at the first element matching its selector, bubbling it
// through the ancestors when the host can report them. Unless a listener prevented
// it, the host's default action runs next, and any event that action raises is
// dispatched the same way.
func (s *Session) Fire(ctx context.Context, spec EventSpec) ([]Dispatched, error) {
	nodes, err := s.doc.QuerySelectorAll(spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target of %q: %w", spec, err)
	}
	if len(nodes) == 0 {
		return nil, &TargetError{Selector: spec.Selector}
	}

	var out []Dispatched
	target, eventType := nodes[0].Handle(), spec.Type
	for i := 0; ; i++ {
		if i > maxFollowUps {
			return out, fmt.Errorf("event %q raised more than %d follow-up events", spec, maxFollowUps)
		}
		outcome, err := propagate.Fire(ctx, s.runtime, s.parents, target, eventType)
		out = append(out, Dispatched{
			Type:      eventType,
			Target:    target,
			Tag:       s.tagOf(target),
			Prevented: outcome.Prevented,
			Path:      outcome.Path,
		})
		if err != nil {
			return out, err
		}
		s.logger.Debug("Event dispatched",
			zap.String("type", eventType),
			zap.Int64("target", int64(target)),
			zap.Bool("prevented", outcome.Prevented),
			zap.Int("path", len(outcome.Path)),
		)
		if outcome.Prevented || s.page == nil {
			return out, nil
		}

		follow, err := s.page.DefaultAction(target, eventType, spec.Key)
		if err != nil {
			return out, fmt.Errorf("default action for %q failed: %w", eventType, err)
		}
		if follow == nil {
			return out, nil
		}
		target, eventType = follow.Target, follow.Type
	}
}

func (s *Session) tagOf(h bridge.Handle) string {
	if s.page == nil {
		return ""
	}
	tag, err := s.page.Tag(h)
	if err != nil {
		return ""
	}
	return tag
}

// FireLine parses line and fires it.
func (s *Session) FireLine(ctx context.Context, line string) ([]Dispatched, error) {
	spec, err := ParseEvent(line)
	if err != nil {
		return nil, err
	}
	return s.Fire(ctx, spec)
}
