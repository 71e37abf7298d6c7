// internal/host/memhost/selector.go
package memhost

import (
	"errors"
	"fmt"
	"strings"
)

var errEmptySelector = errors.New("empty selector")

// selectorToXPath translates the CSS subset page scripts use into XPath for
// htmlquery: type and universal selectors, #id, .class, [attr], [attr=value], and the
// descendant and child combinators. Selectors that already look like XPath pass through.
func selectorToXPath(css string) (string, error) {
	css = strings.TrimSpace(css)
	if css == "" {
		return "", errEmptySelector
	}
	if strings.HasPrefix(css, "/") || strings.HasPrefix(css, "./") || strings.HasPrefix(css, "(") {
		return css, nil
	}

	p := &selectorParser{src: css}
	var xpath strings.Builder
	axis := "//"
	for {
		p.skipSpace()
		if p.done() {
			break
		}
		if p.peek() == '>' {
			if xpath.Len() == 0 {
				return "", fmt.Errorf("combinator at offset %d has no left-hand side", p.pos)
			}
			p.pos++
			axis = "/"
			continue
		}

		step, err := p.compound()
		if err != nil {
			return "", err
		}
		xpath.WriteString(axis)
		xpath.WriteString(step)
		axis = "//"
	}
	if axis == "/" {
		return "", errors.New("dangling child combinator")
	}
	return xpath.String(), nil
}

type selectorParser struct {
	src string
	pos int
}

func (p *selectorParser) done() bool { return p.pos >= len(p.src) }
func (p *selectorParser) peek() byte { return p.src[p.pos] }

func (p *selectorParser) skipSpace() {
	for !p.done() && isSpace(p.peek()) {
		p.pos++
	}
}

// compound parses one compound selector (tag plus any #id, .class and [attr] parts)
// and returns it as an XPath step.
func (p *selectorParser) compound() (string, error) {
	tag := "*"
	var predicates []string

	if !p.done() && p.peek() == '*' {
		p.pos++
	} else if name := p.ident(); name != "" {
		tag = strings.ToLower(name)
	}

	for !p.done() {
		switch c := p.peek(); c {
		case '#':
			p.pos++
			id := p.ident()
			if id == "" {
				return "", fmt.Errorf("missing id after '#' at offset %d", p.pos)
			}
			predicates = append(predicates, "@id="+xpathLiteral(id))
		case '.':
			p.pos++
			class := p.ident()
			if class == "" {
				return "", fmt.Errorf("missing class name after '.' at offset %d", p.pos)
			}
			predicates = append(predicates,
				fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), %s)", xpathLiteral(" "+class+" ")))
		case '[':
			pred, err := p.attribute()
			if err != nil {
				return "", err
			}
			predicates = append(predicates, pred)
		default:
			if isSpace(c) || c == '>' {
				return step(tag, predicates), nil
			}
			return "", fmt.Errorf("unsupported character %q at offset %d", c, p.pos)
		}
	}
	return step(tag, predicates), nil
}

// attribute parses [name] or [name=value] with an optionally quoted value.
func (p *selectorParser) attribute() (string, error) {
	start := p.pos
	p.pos++ // '['
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return "", fmt.Errorf("missing attribute name at offset %d", start)
	}
	p.skipSpace()
	if p.done() {
		return "", fmt.Errorf("unterminated attribute selector at offset %d", start)
	}
	if p.peek() == ']' {
		p.pos++
		return "@" + strings.ToLower(name), nil
	}
	if p.peek() != '=' {
		return "", fmt.Errorf("unsupported attribute operator at offset %d", p.pos)
	}
	p.pos++
	p.skipSpace()

	var value string
	if !p.done() && (p.peek() == '"' || p.peek() == '\'') {
		quote := p.peek()
		end := strings.IndexByte(p.src[p.pos+1:], quote)
		if end < 0 {
			return "", fmt.Errorf("unterminated string at offset %d", p.pos)
		}
		value = p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
	} else {
		value = p.ident()
	}
	p.skipSpace()
	if p.done() || p.peek() != ']' {
		return "", fmt.Errorf("unterminated attribute selector at offset %d", start)
	}
	p.pos++
	return fmt.Sprintf("@%s=%s", strings.ToLower(name), xpathLiteral(value)), nil
}

func (p *selectorParser) ident() string {
	start := p.pos
	for !p.done() && isIdentByte(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func step(tag string, predicates []string) string {
	if len(predicates) == 0 {
		return tag
	}
	return tag + "[" + strings.Join(predicates, " and ") + "]"
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
