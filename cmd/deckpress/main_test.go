package main

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnemet/DeckPress/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExportsBundle(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := (&testutil.Deck{
		Slides: []testutil.Slide{{
			Shapes: testutil.TextShape(2, "Title", "Body line") + testutil.PictureShape(3, "rId2"),
			Images: map[string]string{"rId2": "image1.png"},
		}},
		Media: map[string][]byte{"image1.png": testutil.PNG(t, 2, 2, color.White)},
	}).Write(t, dir)

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"--in", input,
		"--out", filepath.Join(dir, "public", "slides", "images"),
		"--md", filepath.Join(dir, "public", "slides", "deck.md"),
		"--json", filepath.Join(dir, "public", "slides", "deck.json"),
	}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "OK\n", stdout.String())

	md, err := os.ReadFile(filepath.Join(dir, "public", "slides", "deck.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n- Body line\n\n![Slide 1](/slides/images/001_1.png)\n", string(md))
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"--in", filepath.Join(dir, "nope.pptx"),
		"--out", filepath.Join(dir, "images"),
		"--md", filepath.Join(dir, "deck.md"),
		"--json", filepath.Join(dir, "deck.json"),
	}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "input file not found")
	assert.Empty(t, stdout.String())
	_, err := os.Stat(filepath.Join(dir, "images"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRequiresArguments(t *testing.T) {
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"--in", "deck.pptx"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "missing required arguments")
}
