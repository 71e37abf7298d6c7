// internal/host/memhost/actions.go
package memhost

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domfacade/internal/bridge"
)

// Field is one name=value pair of a submitted form, in document order.
type Field struct {
	Name  string
	Value string
}

// Submission records a form the host submitted as a default action.
type Submission struct {
	Action string
	Method string
	Fields []Field
}

// Body returns the fields form-encoded in document order.
func (s Submission) Body() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = url.QueryEscape(f.Name) + "=" + url.QueryEscape(f.Value)
	}
	return strings.Join(parts, "&")
}

// FollowUp is an event a default action raises in turn, such as the submit that a
// click on a form button causes. It goes through dispatch like any other event.
type FollowUp struct {
	Type   string
	Target bridge.Handle
}

// DefaultAction performs what the page does for an event nobody prevented: keydown
// appends key to the target's value, a click on a checkbox toggles it, a click on a
// button asks for a submit of its form, a click on a link is logged, and submit
// records the form's fields.
func (h *Host) DefaultAction(target bridge.Handle, eventType, key string) (*FollowUp, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.node(target)
	if err != nil {
		return nil, err
	}

	switch eventType {
	case "keydown":
		value, _ := attr(n, "value")
		setAttr(n, "value", value+key)

	case "click":
		switch {
		case n.Data == "input" && attrIs(n, "type", "checkbox"):
			if _, checked := attr(n, "checked"); checked {
				removeAttr(n, "checked")
			} else {
				setAttr(n, "checked", "")
			}
		case n.Data == "button":
			if form := closest(n, "form"); form != nil {
				return &FollowUp{Type: "submit", Target: h.handleFor(form)}, nil
			}
		case n.Data == "a":
			if href, ok := attr(n, "href"); ok {
				h.logger.Info("Link followed", zap.Int64("handle", int64(target)), zap.String("href", href))
			}
		}

	case "submit":
		form := closest(n, "form")
		if form == nil {
			h.logger.Debug("Submit outside a form ignored", zap.Int64("handle", int64(target)))
			return nil, nil
		}
		sub := h.collect(form)
		h.submissions = append(h.submissions, sub)
		h.logger.Info("Form submitted",
			zap.String("action", sub.Action),
			zap.String("method", sub.Method),
			zap.Int("fields", len(sub.Fields)),
		)
	}
	return nil, nil
}

// Submissions returns the forms submitted so far, oldest first.
func (h *Host) Submissions() []Submission {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Submission, len(h.submissions))
	copy(out, h.submissions)
	return out
}

func (h *Host) collect(form *html.Node) Submission {
	action, _ := attr(form, "action")
	method, ok := attr(form, "method")
	if !ok {
		method = "GET"
	}
	sub := Submission{Action: action, Method: strings.ToUpper(method)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			if name, ok := attr(n, "name"); ok {
				if attrIs(n, "type", "checkbox") {
					if _, checked := attr(n, "checked"); checked {
						value, ok := attr(n, "value")
						if !ok {
							value = "on"
						}
						sub.Fields = append(sub.Fields, Field{Name: name, Value: value})
					}
				} else {
					value, _ := attr(n, "value")
					sub.Fields = append(sub.Fields, Field{Name: name, Value: value})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	return sub
}

// closest returns the nearest inclusive ancestor with the given tag.
func closest(n *html.Node, tag string) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
	}
	return nil
}

func attrIs(n *html.Node, name, want string) bool {
	v, ok := attr(n, name)
	return ok && strings.EqualFold(v, want)
}
