package pptx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// XML namespaces used by PresentationML parts.
const (
	NamespaceDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespacePresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	NamespaceRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespacePackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Element is a generic node of a part's markup.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Element
	Text     string
}

// ParseElement builds the element tree of an XML document and returns its root.
func ParseElement(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			node := &Element{Name: el.Name, Attr: el.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(el)
			}
		}
	}

	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

// Is reports whether the element has the given namespace and local name.
func (e *Element) Is(space, local string) bool {
	return e != nil && e.Name.Space == space && e.Name.Local == local
}

// AttrValue returns the value of the attribute, or "" when absent.
// An empty space matches unqualified attributes.
func (e *Element) AttrValue(space, local string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Child returns the first direct child with the given name.
func (e *Element) Child(space, local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Is(space, local) {
			return c
		}
	}
	return nil
}

// Path follows a chain of direct children, each given as a presentation or
// drawing name like "p:cSld".
func (e *Element) Path(steps ...string) *Element {
	cur := e
	for _, step := range steps {
		space, local := splitQName(step)
		cur = cur.Child(space, local)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Find returns the first descendant with the given name in document order.
func (e *Element) Find(space, local string) *Element {
	var found *Element
	e.visit(func(el *Element) bool {
		if found != nil {
			return false
		}
		if el != e && el.Is(space, local) {
			found = el
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant with the given name in document order.
func (e *Element) FindAll(space, local string) []*Element {
	var out []*Element
	e.visit(func(el *Element) bool {
		if el != e && el.Is(space, local) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// visit walks the subtree depth-first; returning false from fn skips the
// children of that element.
func (e *Element) visit(fn func(*Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.visit(fn)
	}
}

func splitQName(qname string) (string, string) {
	prefix, local, ok := strings.Cut(qname, ":")
	if !ok {
		return "", qname
	}
	switch prefix {
	case "p":
		return NamespacePresentation, local
	case "a":
		return NamespaceDrawingML, local
	case "r":
		return NamespaceRelationships, local
	default:
		panic(fmt.Sprintf("pptx: unknown prefix %q", prefix))
	}
}
