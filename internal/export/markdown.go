package export

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// RenderMarkdown renders one heading per slide followed by its bullets and
// image embeds. Slides are separated by a horizontal rule.
func RenderMarkdown(results []SlideResult, assetPrefix string) string {
	var lines []string
	for _, r := range results {
		lines = append(lines, "# "+r.Title)
		for _, b := range r.Bullets {
			lines = append(lines, "- "+b)
		}
		for _, name := range r.Images {
			lines = append(lines, "", fmt.Sprintf("![Slide %d](%s%s)", r.Index, assetPrefix, name))
		}
		lines = append(lines, "", "---")
	}

	if n := len(lines); n > 0 && lines[n-1] == "---" {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

// RenderHTML converts the Markdown rendition to an HTML fragment.
func RenderHTML(markdown string) []byte {
	return blackfriday.Run([]byte(markdown))
}
