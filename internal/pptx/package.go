// Package pptx reads PresentationML packages: slide order, shape trees,
// relationship tables and the binary parts they point to.
package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	contentTypesPart = "[Content_Types].xml"
	presentationPart = "ppt/presentation.xml"

	relTypeSlide = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"

	// DefaultPartCacheSize bounds the number of inflated parts kept in memory.
	DefaultPartCacheSize = 64
)

var (
	// ErrPartMissing is returned when a part name is not present in the package.
	ErrPartMissing = errors.New("part not found")

	slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// Package is an opened presentation container.
type Package struct {
	zr         *zip.ReadCloser
	files      map[string]*zip.File
	cache      *lru.Cache[string, []byte]
	slideParts []string
	rels       map[string]Relationships
}

// Option configures Open.
type Option func(*options)

type options struct {
	partCacheSize int
}

// WithPartCacheSize sets how many inflated parts are cached.
func WithPartCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.partCacheSize = n
		}
	}
}

// Open opens the presentation at filename and determines its slide order.
func Open(filename string, opts ...Option) (*Package, error) {
	o := options{partCacheSize: DefaultPartCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	cache, err := lru.New[string, []byte](o.partCacheSize)
	if err != nil {
		zr.Close()
		return nil, err
	}

	p := &Package{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
		cache: cache,
		rels:  make(map[string]Relationships),
	}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	for _, name := range []string{contentTypesPart, presentationPart} {
		if _, ok := p.files[name]; !ok {
			zr.Close()
			return nil, fmt.Errorf("missing required file: %s", name)
		}
	}

	if err := p.loadSlideOrder(); err != nil {
		zr.Close()
		return nil, fmt.Errorf("parsing presentation: %w", err)
	}

	return p, nil
}

// Close releases the underlying archive.
func (p *Package) Close() error {
	if p.zr == nil {
		return nil
	}
	err := p.zr.Close()
	p.zr = nil
	return err
}

// HasPart reports whether the package contains the named part.
func (p *Package) HasPart(name string) bool {
	_, ok := p.files[name]
	return ok
}

// ReadPart returns the inflated bytes of a part. Callers must not modify them.
func (p *Package) ReadPart(name string) ([]byte, error) {
	if data, ok := p.cache.Get(name); ok {
		return data, nil
	}

	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartMissing, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	p.cache.Add(name, data)
	return data, nil
}

func (p *Package) parsePart(name string) (*Element, error) {
	data, err := p.ReadPart(name)
	if err != nil {
		return nil, err
	}
	root, err := ParseElement(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return root, nil
}

// SlideCount returns the number of slides in presentation order.
func (p *Package) SlideCount() int {
	return len(p.slideParts)
}

// SlidePartNames returns slide part names in presentation order.
func (p *Package) SlidePartNames() []string {
	return append([]string(nil), p.slideParts...)
}

// loadSlideOrder follows p:sldIdLst through the presentation relationships.
// Packages without a usable id list fall back to numeric part order.
func (p *Package) loadSlideOrder() error {
	root, err := p.parsePart(presentationPart)
	if err != nil {
		return err
	}
	rels, err := p.Relationships(presentationPart)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, id := range root.Path("p:sldIdLst").FindAll(NamespacePresentation, "sldId") {
		rel, ok := rels[id.AttrValue(NamespaceRelationships, "id")]
		if !ok || rel.External || rel.Type != relTypeSlide {
			continue
		}
		if !p.HasPart(rel.Target) || seen[rel.Target] {
			continue
		}
		seen[rel.Target] = true
		p.slideParts = append(p.slideParts, rel.Target)
	}
	if len(p.slideParts) > 0 {
		return nil
	}

	for name := range p.files {
		if slidePartRe.MatchString(name) {
			p.slideParts = append(p.slideParts, name)
		}
	}
	sort.Slice(p.slideParts, func(i, j int) bool {
		return slideNumber(p.slideParts[i]) < slideNumber(p.slideParts[j])
	})
	return nil
}

func slideNumber(name string) int {
	m := slidePartRe.FindStringSubmatch(name)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// relsPartName returns the relationship part for a source part,
// e.g. ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPartName(partName string) string {
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// resolveTarget resolves a relationship target against its source part.
func resolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Clean(path.Join(path.Dir(sourcePart), target)), "/")
}
