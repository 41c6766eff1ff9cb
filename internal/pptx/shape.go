package pptx

import (
	"errors"
	"fmt"
	"strings"
)

// ShapeKind is the element type of a shape in a shape tree.
type ShapeKind string

const (
	ShapeKindAuto         ShapeKind = "sp"
	ShapeKindGroup        ShapeKind = "grpSp"
	ShapeKindPicture      ShapeKind = "pic"
	ShapeKindGraphicFrame ShapeKind = "graphicFrame"
	ShapeKindConnector    ShapeKind = "cxnSp"
	ShapeKindContentPart  ShapeKind = "contentPart"
)

var (
	ErrNotGroup       = errors.New("shape is not a group")
	ErrMalformedGroup = errors.New("malformed group shape")
)

// Shape is a node of a slide's shape tree.
type Shape struct {
	el   *Element
	kind ShapeKind
}

func isShapeElement(el *Element) bool {
	if el.Name.Space != NamespacePresentation {
		return false
	}
	switch ShapeKind(el.Name.Local) {
	case ShapeKindAuto, ShapeKindGroup, ShapeKindPicture, ShapeKindGraphicFrame,
		ShapeKindConnector, ShapeKindContentPart:
		return true
	}
	return false
}

func shapesOf(container *Element) []*Shape {
	if container == nil {
		return nil
	}
	var shapes []*Shape
	for _, c := range container.Children {
		if isShapeElement(c) {
			shapes = append(shapes, &Shape{el: c, kind: ShapeKind(c.Name.Local)})
		}
	}
	return shapes
}

func (s *Shape) Kind() ShapeKind { return s.kind }
func (s *Shape) IsGroup() bool   { return s.kind == ShapeKindGroup }

// Markup returns the shape's own element.
func (s *Shape) Markup() *Element { return s.el }

// Name returns the shape name from its non-visual properties.
func (s *Shape) Name() string {
	for _, c := range s.el.Children {
		if strings.HasPrefix(c.Name.Local, "nv") {
			return c.Child(NamespacePresentation, "cNvPr").AttrValue("", "name")
		}
	}
	return ""
}

// Children returns the direct children of a group shape.
func (s *Shape) Children() ([]*Shape, error) {
	if !s.IsGroup() {
		return nil, ErrNotGroup
	}
	if s.el.Child(NamespacePresentation, "nvGrpSpPr") == nil {
		return nil, fmt.Errorf("%w: missing nvGrpSpPr", ErrMalformedGroup)
	}
	return shapesOf(s.el), nil
}

// Text returns the shape's text, one line per paragraph. Only auto shapes
// carry a text body; other kinds return "".
func (s *Shape) Text() string {
	if s.kind != ShapeKindAuto {
		return ""
	}
	body := s.el.Child(NamespacePresentation, "txBody")
	if body == nil {
		return ""
	}

	var paras []string
	for _, p := range body.Children {
		if !p.Is(NamespaceDrawingML, "p") {
			continue
		}
		var b strings.Builder
		for _, run := range p.Children {
			switch {
			case run.Is(NamespaceDrawingML, "r"), run.Is(NamespaceDrawingML, "fld"):
				b.WriteString(run.Child(NamespaceDrawingML, "t").textOrEmpty())
			case run.Is(NamespaceDrawingML, "br"):
				b.WriteString("\n")
			}
		}
		paras = append(paras, b.String())
	}
	return strings.Join(paras, "\n")
}

// Lines returns the non-empty, trimmed lines of the shape's text.
func (s *Shape) Lines() []string {
	var lines []string
	for _, line := range strings.FieldsFunc(s.Text(), isLineBreak) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (e *Element) textOrEmpty() string {
	if e == nil {
		return ""
	}
	return e.Text
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\u2028', '\u2029':
		return true
	}
	return false
}
