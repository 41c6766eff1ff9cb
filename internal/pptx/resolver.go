package pptx

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrExternalTarget       = errors.New("relationship targets an external resource")
)

// Relationship is one entry of a part's relationship table.
type Relationship struct {
	ID       string
	Type     string
	Target   string // package part name, or the raw URI when External
	External bool
}

// Relationships maps relationship ids to their entries.
type Relationships map[string]Relationship

// Payload is the binary content of a resolved part.
type Payload struct {
	PartName string
	Filename string
	Ext      string
	Data     []byte
}

// Relationships returns the relationship table of a part. A part without a
// relationships part has an empty table.
func (p *Package) Relationships(partName string) (Relationships, error) {
	if rels, ok := p.rels[partName]; ok {
		return rels, nil
	}

	rels := make(Relationships)
	relsName := relsPartName(partName)
	if !p.HasPart(relsName) {
		p.rels[partName] = rels
		return rels, nil
	}

	root, err := p.parsePart(relsName)
	if err != nil {
		return nil, err
	}
	for _, el := range root.Children {
		if el.Name.Local != "Relationship" {
			continue
		}
		id := el.AttrValue("", "Id")
		if id == "" {
			continue
		}
		rel := Relationship{
			ID:       id,
			Type:     el.AttrValue("", "Type"),
			Target:   el.AttrValue("", "Target"),
			External: strings.EqualFold(el.AttrValue("", "TargetMode"), "External"),
		}
		if !rel.External {
			rel.Target = resolveTarget(partName, rel.Target)
		}
		rels[id] = rel
	}

	p.rels[partName] = rels
	return rels, nil
}

// Resolve maps a relationship id found in owningPart's markup to the binary
// part it targets.
func (p *Package) Resolve(owningPart, relID string) (*Payload, error) {
	if relID == "" {
		return nil, ErrRelationshipNotFound
	}

	rels, err := p.Relationships(owningPart)
	if err != nil {
		return nil, err
	}
	rel, ok := rels[relID]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrRelationshipNotFound, relID, owningPart)
	}
	if rel.External {
		return nil, fmt.Errorf("%w: %s", ErrExternalTarget, rel.Target)
	}

	data, err := p.ReadPart(rel.Target)
	if err != nil {
		return nil, err
	}

	filename := path.Base(rel.Target)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "png"
	}

	return &Payload{
		PartName: rel.Target,
		Filename: filename,
		Ext:      ext,
		Data:     data,
	}, nil
}
