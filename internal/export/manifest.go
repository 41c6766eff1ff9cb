package export

import (
	"bytes"
	"encoding/json"
)

// ManifestSlide is one entry of the JSON manifest.
type ManifestSlide struct {
	Index   int      `json:"index"`
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Images  []string `json:"images"`
}

// Manifest is the structured summary consumed by the web app.
type Manifest struct {
	Slides []ManifestSlide `json:"slides"`
}

// BuildManifest converts slide results into manifest entries, prefixing
// image names with assetPrefix.
func BuildManifest(results []SlideResult, assetPrefix string) Manifest {
	m := Manifest{Slides: make([]ManifestSlide, 0, len(results))}
	for _, r := range results {
		entry := ManifestSlide{
			Index:   r.Index,
			Title:   r.Title,
			Bullets: append([]string{}, r.Bullets...),
			Images:  make([]string, 0, len(r.Images)),
		}
		for _, name := range r.Images {
			entry.Images = append(entry.Images, assetPrefix+name)
		}
		m.Slides = append(m.Slides, entry)
	}
	return m
}

// Marshal encodes the manifest with two-space indentation and without
// HTML escaping.
func (m Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
