package extract

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// element is a minimal DOM-like view of an XML element. Elements are matched by local names, attributes keep local
// names only.
type element struct {
	space string
	name  string
	attrs map[string]string
	parts []part
}

type part struct {
	text  string
	child *element
}

func parseTree(text string) (*element, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	decoder.Strict = true
	decoder.CharsetReader = charset.NewReaderLabel

	document := &element{}
	stack := []*element{document}

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		current := stack[len(stack)-1]

		switch token := token.(type) {
		case xml.StartElement:
			child := &element{
				space: token.Name.Space,
				name:  token.Name.Local,
				attrs: make(map[string]string, len(token.Attr)),
			}
			for _, attr := range token.Attr {
				child.attrs[attr.Name.Local] = attr.Value
			}
			current.parts = append(current.parts, part{child: child})
			stack = append(stack, child)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			current.parts = append(current.parts, part{text: string(token)})
		}
	}

	return document, nil
}

// Text returns concatenated text of the element and all its descendants.
func (e *element) Text() string {
	var builder strings.Builder
	e.writeText(&builder)
	return builder.String()
}

func (e *element) writeText(builder *strings.Builder) {
	for _, part := range e.parts {
		if part.child != nil {
			part.child.writeText(builder)
		} else {
			builder.WriteString(part.text)
		}
	}
}

// All returns all descendants with the specified name in document order.
func (e *element) All(name string) []*element {
	var result []*element
	e.walk(func(element *element) bool {
		if element.name == name {
			result = append(result, element)
		}
		return true
	})
	return result
}

// Child returns the first direct child which has the specified name and matches the filter. Children from the
// element's own namespace take precedence over extensions (<title> wins over <media:title>).
func (e *element) Child(name string, filter func(element *element) bool) (*element, bool) {
	var extension *element

	for _, part := range e.parts {
		child := part.child
		if child == nil || child.name != name || filter != nil && !filter(child) {
			continue
		}

		if child.space == e.space {
			return child, true
		} else if extension == nil {
			extension = child
		}
	}

	return extension, extension != nil
}

func (e *element) walk(visit func(element *element) bool) bool {
	for _, part := range e.parts {
		if part.child == nil {
			continue
		}
		if !visit(part.child) || !part.child.walk(visit) {
			return false
		}
	}
	return true
}
