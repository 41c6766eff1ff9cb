// Package testutil builds presentation fixtures for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const (
	nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	relsNS      = `http://schemas.openxmlformats.org/package/2006/relationships`
	relTypeBase = `http://schemas.openxmlformats.org/officeDocument/2006/relationships/`
)

// Slide describes one slide part.
type Slide struct {
	// Shapes is the markup placed inside p:spTree.
	Shapes string
	// Background is the markup placed inside p:bg, if any.
	Background string
	// Images maps relationship ids to part names under ppt/media.
	Images map[string]string
	// Raw replaces the generated slide XML entirely.
	Raw string
}

// Deck describes a whole package.
type Deck struct {
	Slides []Slide
	// Media holds ppt/media parts by file name.
	Media map[string][]byte
	// Order lists 1-based slide part numbers in presentation order.
	// Nil means part order.
	Order []int
}

// Write stores the deck as a .pptx file in dir and returns its path.
func (d *Deck) Write(t testing.TB, dir string) string {
	t.Helper()

	p := filepath.Join(dir, "deck.pptx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", p, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	writeZipFile(t, zw, "[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
</Types>`)
	writeZipFile(t, zw, "_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="`+relsNS+`">
  <Relationship Id="rId1" Type="`+relTypeBase+`officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`)

	order := d.Order
	if order == nil {
		for i := range d.Slides {
			order = append(order, i+1)
		}
	}

	var ids, presRels strings.Builder
	for i, n := range order {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, 100+n)
	}
	for n := range d.Slides {
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%sslide" Target="slides/slide%d.xml"/>`, 101+n, relTypeBase, n+1)
	}
	writeZipFile(t, zw, "ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation `+nsDecl+`><p:sldIdLst>`+ids.String()+`</p:sldIdLst></p:presentation>`)
	writeZipFile(t, zw, "ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="`+relsNS+`">`+presRels.String()+`</Relationships>`)

	for i, s := range d.Slides {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		writeZipFile(t, zw, name, s.xml())
		if len(s.Images) > 0 {
			writeZipFile(t, zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), s.rels())
		}
	}

	media := make([]string, 0, len(d.Media))
	for name := range d.Media {
		media = append(media, name)
	}
	sort.Strings(media)
	for _, name := range media {
		w, err := zw.Create("ppt/media/" + name)
		if err != nil {
			t.Fatalf("Failed to create media %s: %v", name, err)
		}
		if _, err := w.Write(d.Media[name]); err != nil {
			t.Fatalf("Failed to write media %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return p
}

func (s Slide) xml() string {
	if s.Raw != "" {
		return s.Raw
	}
	var bg string
	if s.Background != "" {
		bg = "<p:bg>" + s.Background + "</p:bg>"
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld ` + nsDecl + `><p:cSld>` + bg + `<p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		s.Shapes + `</p:spTree></p:cSld></p:sld>`
}

func (s Slide) rels() string {
	ids := make([]string, 0, len(s.Images))
	for id := range s.Images {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="` + relsNS + `">`)
	for _, id := range ids {
		target := s.Images[id]
		if strings.Contains(target, "://") {
			fmt.Fprintf(&b, `<Relationship Id="%s" Type="%simage" Target="%s" TargetMode="External"/>`, id, relTypeBase, target)
			continue
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%simage" Target="../media/%s"/>`, id, relTypeBase, target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func writeZipFile(t testing.TB, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Failed to create %s in zip: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// TextShape returns a p:sp with one paragraph per line.
func TextShape(id int, lines ...string) string {
	var paras strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&paras, `<a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p>`, l)
	}
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr/><p:txBody><a:bodyPr/>%s</p:txBody></p:sp>`, id, id, paras.String())
}

// PictureShape returns a p:pic whose fill references relID.
func PictureShape(id int, relID string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr/></p:pic>`, id, id, relID)
}

// GroupShape wraps children in a p:grpSp.
func GroupShape(id int, children ...string) string {
	return fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group %d"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`+
		`<p:grpSpPr/>%s</p:grpSp>`, id, id, strings.Join(children, ""))
}

// AlternateContent wraps choice in mc:AlternateContent/mc:Choice.
func AlternateContent(choice string) string {
	return `<mc:AlternateContent xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006">` +
		`<mc:Choice Requires="p14">` + choice + `</mc:Choice></mc:AlternateContent>`
}

// BlipBackground returns p:bg content with a picture fill.
func BlipBackground(relID string) string {
	return fmt.Sprintf(`<p:bgPr><a:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></a:blipFill><a:effectLst/></p:bgPr>`, relID)
}

// PNG returns an encoded w×h PNG filled with c.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}
