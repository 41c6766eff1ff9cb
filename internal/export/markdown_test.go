package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	results := []SlideResult{
		{Index: 1, Title: "Intro", Bullets: []string{"a", "b"}, Images: []string{"001_1.png", "001_2.jpg"}},
		{Index: 2, Title: "Slide 2"},
	}

	want := "# Intro\n" +
		"- a\n" +
		"- b\n" +
		"\n" +
		"![Slide 1](/slides/images/001_1.png)\n" +
		"\n" +
		"![Slide 1](/slides/images/001_2.jpg)\n" +
		"\n" +
		"---\n" +
		"# Slide 2\n"
	assert.Equal(t, want, RenderMarkdown(results, DefaultAssetPrefix))
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(nil, DefaultAssetPrefix))
}

func TestManifestMarshal(t *testing.T) {
	m := BuildManifest([]SlideResult{{Index: 1, Title: "R&D <2024>", Images: []string{"001_1.png"}}}, "/x/")
	data, err := m.Marshal()
	require.NoError(t, err)

	assert.Equal(t, `{
  "slides": [
    {
      "index": 1,
      "title": "R&D <2024>",
      "bullets": [],
      "images": [
        "/x/001_1.png"
      ]
    }
  ]
}`, string(data))
}

func TestListImagesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"001_10.png", "001_2.png", "002_1.JPG", "001_1.webp", "notes.txt", "é_10.png", "É_2.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	got, err := ListImages(dir, DefaultAssetPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/slides/images/001_1.webp",
		"/slides/images/001_2.png",
		"/slides/images/001_10.png",
		"/slides/images/002_1.JPG",
		"/slides/images/É_2.png",
		"/slides/images/é_10.png",
	}, got)

	got, err = ListImages(filepath.Join(dir, "missing"), DefaultAssetPrefix)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	out := Outputs{
		ImagesDir:    filepath.Join(dir, "images"),
		MarkdownPath: filepath.Join(dir, "deck.md"),
		JSONPath:     filepath.Join(dir, "deck.json"),
	}
	require.NoError(t, os.MkdirAll(out.ImagesDir, 0755))
	require.NoError(t, os.WriteFile(out.MarkdownPath, []byte("# x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(out.ImagesDir, "001_1.png"), []byte("x"), 0644))

	require.NoError(t, Clear(out))

	_, err := os.Stat(out.MarkdownPath)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(out.ImagesDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
