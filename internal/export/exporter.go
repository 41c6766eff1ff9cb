// Package export turns a presentation into a web bundle: image files,
// a Markdown rendition and a JSON manifest.
package export

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gnemet/DeckPress/internal/blob"
	"github.com/gnemet/DeckPress/internal/pptx"
)

// DefaultAssetPrefix is the public path under which images are served.
const DefaultAssetPrefix = "/slides/images/"

type Options struct {
	AssetPrefix   string
	MaxGroupDepth int
	PartCacheSize int
}

// Outputs names the files and directories an export writes.
// HTMLPath is optional.
type Outputs struct {
	ImagesDir    string
	MarkdownPath string
	JSONPath     string
	HTMLPath     string
}

// SlideResult is the exported content of one slide.
type SlideResult struct {
	Index   int
	Title   string
	Bullets []string
	Images  []string // file names inside the images directory
	Stats   Stats
}

// Stats counts what happened to image references.
type Stats struct {
	Slides      int
	ImagesSaved int
	Duplicates  int
	Failures    int
}

func (s *Stats) add(o Stats) {
	s.Slides += o.Slides
	s.ImagesSaved += o.ImagesSaved
	s.Duplicates += o.Duplicates
	s.Failures += o.Failures
}

// Bundle is the result of exporting a whole document.
type Bundle struct {
	Slides   []SlideResult
	Manifest Manifest
	Markdown string
	Stats    Stats
}

type Exporter struct {
	Options    Options
	Logger     *log.Logger
	Normalizer *blob.Normalizer
}

// New returns an Exporter. A nil logger discards warnings.
func New(opts Options, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.AssetPrefix == "" {
		opts.AssetPrefix = DefaultAssetPrefix
	}
	if opts.MaxGroupDepth <= 0 {
		opts.MaxGroupDepth = pptx.DefaultMaxDepth
	}
	return &Exporter{
		Options:    opts,
		Logger:     logger,
		Normalizer: blob.NewNormalizer(logger),
	}
}

func (e *Exporter) warn(format string, v ...interface{}) {
	e.Logger.Printf("WARN: "+format, v...)
}

// Export converts the presentation at inputPath and writes every output.
// Only a missing input, an unreadable container or an unwritable output
// location is returned as an error; per-slide problems are logged.
func (e *Exporter) Export(inputPath string, out Outputs) (*Bundle, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}

	pkg, err := pptx.Open(inputPath, pptx.WithPartCacheSize(e.Options.PartCacheSize))
	if err != nil {
		return nil, fmt.Errorf("failed to open presentation: %w", err)
	}
	defer pkg.Close()

	if err := os.MkdirAll(out.ImagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images dir: %w", err)
	}

	bundle := &Bundle{}
	for slide, err := range pkg.Slides() {
		if err != nil {
			e.warn("slide %d skipped: %v", slide.Index, err)
			bundle.Slides = append(bundle.Slides, placeholder(slide.Index))
			bundle.Stats.Slides++
			continue
		}
		res := e.ExportSlide(pkg, slide, out.ImagesDir)
		bundle.Slides = append(bundle.Slides, res)
		bundle.Stats.add(res.Stats)
	}

	bundle.Manifest = BuildManifest(bundle.Slides, e.Options.AssetPrefix)
	bundle.Markdown = RenderMarkdown(bundle.Slides, e.Options.AssetPrefix)

	if err := writeFile(out.MarkdownPath, []byte(bundle.Markdown)); err != nil {
		return nil, err
	}
	manifest, err := bundle.Manifest.Marshal()
	if err != nil {
		return nil, err
	}
	if err := writeFile(out.JSONPath, manifest); err != nil {
		return nil, err
	}
	if out.HTMLPath != "" {
		if err := writeFile(out.HTMLPath, RenderHTML(bundle.Markdown)); err != nil {
			return nil, err
		}
	}

	return bundle, nil
}

func placeholder(index int) SlideResult {
	return SlideResult{
		Index:   index,
		Title:   fmt.Sprintf("Slide %d", index),
		Bullets: []string{},
		Images:  []string{},
		Stats:   Stats{Slides: 1},
	}
}

// ExportSlide extracts the slide's text and writes its images into outDir.
func (e *Exporter) ExportSlide(pkg *pptx.Package, slide *pptx.Slide, outDir string) SlideResult {
	res := placeholder(slide.Index)

	// Text comes from top-level shapes only.
	var texts []string
	for _, shp := range slide.Shapes() {
		texts = append(texts, shp.Lines()...)
	}
	if len(texts) > 0 {
		res.Title = texts[0]
		res.Bullets = append(res.Bullets, texts[1:]...)
	}

	imgs := e.extractImages(pkg, slide, outDir)
	res.Images = append(res.Images, imgs.names...)
	res.Stats.add(imgs.stats)
	return res
}

// slideImages is the image state of one slide export. It is never shared
// between slides.
type slideImages struct {
	index  int
	outDir string
	seen   blob.SeenSet
	next   int
	names  []string
	stats  Stats
}

func (e *Exporter) extractImages(pkg *pptx.Package, slide *pptx.Slide, outDir string) *slideImages {
	st := &slideImages{
		index:  slide.Index,
		outDir: outDir,
		seen:   blob.NewSeenSet(),
		next:   1,
	}

	walk := pptx.Walk(slide.Shapes(), pptx.WalkOptions{
		MaxDepth: e.Options.MaxGroupDepth,
		OnError: func(err error) {
			e.warn("shape iterate error on slide %d: %v", slide.Index, err)
		},
	})
	for shp := range walk {
		e.extractBlipImages(pkg, slide.PartName, pptx.BlipRefs(shp.Markup(), true), st)
	}

	if bg := slide.Background(); bg != nil {
		e.extractBlipImages(pkg, slide.PartName, pptx.BlipRefs(bg, false), st)
	}
	return st
}

func (e *Exporter) extractBlipImages(pkg *pptx.Package, partName string, relIDs []string, st *slideImages) {
	for _, relID := range relIDs {
		payload, err := pkg.Resolve(partName, relID)
		if err != nil {
			e.warn("rel resolve failed: %v", err)
			st.stats.Failures++
			continue
		}

		if st.seen.Duplicate(blob.Fingerprint(payload.Data)) {
			st.stats.Duplicates++
			continue
		}

		ext := payload.Ext
		if !blob.IsWebSafe(ext) {
			ext = "png"
		}
		target := filepath.Join(st.outDir, fmt.Sprintf("%03d_%d.%s", st.index, st.next, ext))

		name, err := e.Normalizer.Normalize(payload.Data, payload.Ext, target)
		if err != nil {
			e.warn("slide %d: skipping %s: %v", st.index, payload.PartName, err)
			st.stats.Failures++
			continue
		}
		st.names = append(st.names, name)
		st.next++
		st.stats.ImagesSaved++
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
