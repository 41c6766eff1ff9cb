package pptx

import (
	"fmt"
	"iter"
)

// DefaultMaxDepth bounds group nesting during a walk.
const DefaultMaxDepth = 64

// Tree is a node that may own child nodes.
type Tree[T any] interface {
	IsGroup() bool
	Children() ([]T, error)
}

// WalkOptions configures Walk.
type WalkOptions struct {
	MaxDepth int
	// OnError receives the reason a subtree was abandoned.
	OnError func(error)
}

// Walk yields every node depth-first: a node, then the full subtree of a
// group, then the next sibling. A subtree whose children cannot be read, or
// which is nested deeper than MaxDepth, is skipped and reported to OnError;
// iteration of siblings and ancestors continues.
func Walk[T Tree[T]](roots []T, opts WalkOptions) iter.Seq[T] {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	report := opts.OnError
	if report == nil {
		report = func(error) {}
	}

	return func(yield func(T) bool) {
		var walk func(nodes []T, depth int) bool
		walk = func(nodes []T, depth int) bool {
			for _, n := range nodes {
				if !yield(n) {
					return false
				}
				if !n.IsGroup() {
					continue
				}
				if depth >= maxDepth {
					report(fmt.Errorf("group nesting exceeds %d levels", maxDepth))
					continue
				}
				children, err := n.Children()
				if err != nil {
					report(err)
					continue
				}
				if !walk(children, depth+1) {
					return false
				}
			}
			return true
		}
		walk(roots, 0)
	}
}

// BlipRefs returns the r:embed ids of every a:blip under el, in document
// order. With stopAtShapes set, the direct shape children of el are not
// entered since a walk visits them on its own; shapes nested deeper, such
// as those wrapped in mc:AlternateContent, are scanned as part of el.
func BlipRefs(el *Element, stopAtShapes bool) []string {
	var skip map[*Element]bool
	if stopAtShapes && el != nil {
		for _, c := range el.Children {
			if isShapeElement(c) {
				if skip == nil {
					skip = make(map[*Element]bool)
				}
				skip[c] = true
			}
		}
	}

	var ids []string
	el.visit(func(n *Element) bool {
		if skip[n] {
			return false
		}
		if n.Is(NamespaceDrawingML, "blip") {
			if id := n.AttrValue(NamespaceRelationships, "embed"); id != "" {
				ids = append(ids, id)
			}
		}
		return true
	})
	return ids
}
