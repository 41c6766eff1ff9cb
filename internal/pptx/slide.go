package pptx

import (
	"fmt"
	"iter"
)

// Slide is one slide part in presentation order.
type Slide struct {
	Index    int // 1-based
	PartName string
	Root     *Element
}

// Slide loads the slide at the 1-based position index.
func (p *Package) Slide(index int) (*Slide, error) {
	if index < 1 || index > len(p.slideParts) {
		return nil, fmt.Errorf("slide %d out of range (1..%d)", index, len(p.slideParts))
	}
	name := p.slideParts[index-1]

	root, err := p.parsePart(name)
	if err != nil {
		return nil, err
	}
	if !root.Is(NamespacePresentation, "sld") {
		return nil, fmt.Errorf("%s: unexpected root element %s", name, root.Name.Local)
	}

	return &Slide{Index: index, PartName: name, Root: root}, nil
}

// Slides yields every slide in presentation order. A slide that fails to
// load is yielded with its position and part name, a nil Root and the error.
func (p *Package) Slides() iter.Seq2[*Slide, error] {
	return func(yield func(*Slide, error) bool) {
		for i, name := range p.slideParts {
			slide, err := p.Slide(i + 1)
			if err != nil {
				slide = &Slide{Index: i + 1, PartName: name}
			}
			if !yield(slide, err) {
				return
			}
		}
	}
}

// Shapes returns the top-level shapes of the slide's shape tree.
func (s *Slide) Shapes() []*Shape {
	return shapesOf(s.Root.Path("p:cSld", "p:spTree"))
}

// Background returns the picture fill of the slide background, or nil when
// the background is not an image.
func (s *Slide) Background() *Element {
	bg := s.Root.Path("p:cSld", "p:bg")
	if bg == nil {
		return nil
	}
	return bg.Find(NamespaceDrawingML, "blipFill")
}
